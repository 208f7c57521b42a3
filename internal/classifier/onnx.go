package classifier

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ayusman/handsign/internal/feature"
	"github.com/ayusman/handsign/internal/vocab"
)

// ONNX runs an exported network through onnxruntime with batch size 1.
type ONNX struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewONNX loads the model and metadata named by opts.
func NewONNX(opts Options, v *vocab.Vocabulary) (*ONNX, error) {
	metadata, err := LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}
	if err := metadata.Validate(v); err != nil {
		return nil, err
	}

	if !ort.IsInitialized() {
		if opts.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(opts.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnxruntime: %v", ErrModelLoad, err)
		}
	}

	inputName, outputName := metadata.InputName, metadata.OutputName
	if inputName == "" {
		inputName = "input"
	}
	if outputName == "" {
		outputName = "output"
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("%w: create input tensor: %v", ErrModelLoad, err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("%w: create output tensor: %v", ErrModelLoad, err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{inputName}, []string{outputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("%w: create session: %v", ErrModelLoad, err)
	}

	return &ONNX{
		session:      session,
		Metadata:     *metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Predict runs one forward pass. The output is copied out of the shared
// tensor before returning.
func (o *ONNX) Predict(v feature.Vector) ([]float64, error) {
	if len(v) != feature.Dim {
		return nil, fmt.Errorf("input has %d features, expected %d", len(v), feature.Dim)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	copy(o.inputTensor.GetData(), v.Float32())

	if err := o.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := o.outputTensor.GetData()
	probs := make([]float64, len(out))
	for i, p := range out {
		probs[i] = float64(p)
	}
	return probs, nil
}

// Close releases the session and tensors. The onnxruntime environment is
// process-wide and stays up.
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var err error
	if o.session != nil {
		err = o.session.Destroy()
		o.session = nil
	}
	if o.inputTensor != nil {
		o.inputTensor.Destroy()
		o.inputTensor = nil
	}
	if o.outputTensor != nil {
		o.outputTensor.Destroy()
		o.outputTensor = nil
	}
	return err
}
