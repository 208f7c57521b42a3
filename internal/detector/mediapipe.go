package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// idleShutdown is how long the service may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

const serviceScript = "mediapipe_service.py"

// ErrServiceNotFound is returned when no MediaPipe service script can be located.
var ErrServiceNotFound = errors.New(serviceScript + " not found")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Frames are sent as a 4-byte big-endian length followed by JPEG bytes; the
// service answers each frame with one JSON line. The first line it writes after
// start-up is a handshake listing its landmark names, which must match
// LandmarkNames.
type MediaPipeDetector struct {
	config Config
	script string
	log    logrus.FieldLogger

	mu   sync.Mutex
	proc *service
	idle *time.Timer
}

// service is one running instance of the Python process.
type service struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

// reply is one line of service output.
type reply struct {
	Landmarks []string   `json:"landmarks,omitempty"`
	Hands     []wireHand `json:"hands"`
}

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, log logrus.FieldLogger) (*MediaPipeDetector, error) {
	script := config.Script
	if script == "" {
		script = locate(filepath.Join("scripts", serviceScript))
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if config.MaxHands <= 0 {
		config.MaxHands = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		log:    log.WithField("component", "mediapipe"),
	}, nil
}

// Detect analyzes a frame and returns the most confident hand, or nil.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc == nil {
		if d.proc, err = d.start(); err != nil {
			return nil, err
		}
	}

	r, err := d.proc.roundTrip(buf.GetBytes())
	if err != nil {
		return nil, err
	}
	d.touch()

	hands := make([]HandLandmarks, 0, len(r.Hands))
	for i, h := range r.Hands {
		lm, err := FromPoints(h.Points)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		lm.Handedness = h.Handedness
		lm.Score = h.Score
		hands = append(hands, *lm)
	}
	return pickHand(hands, d.config.MinConfidence), nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) start() (*service, error) {
	python := d.config.Python
	if python == "" {
		python = locate(filepath.Join("venv", "bin", "python"))
	}
	if python == "" {
		python = "python3"
	}

	cmd := exec.Command(python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}

	s := &service{cmd: cmd, in: in, out: bufio.NewReader(out)}
	hello, err := s.read()
	if err == nil {
		err = ValidateOrder(hello.Landmarks)
	}
	if err != nil {
		s.close()
		return nil, fmt.Errorf("mediapipe handshake: %w", err)
	}

	d.log.WithFields(logrus.Fields{"script": d.script, "python": python}).Info("mediapipe service started")
	return s, nil
}

func (d *MediaPipeDetector) stop() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.proc == nil {
		return nil
	}
	err := d.proc.close()
	d.proc = nil
	return err
}

// touch restarts the idle countdown. Callers hold d.mu.
func (d *MediaPipeDetector) touch() {
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.stop(); err != nil {
			d.log.WithError(err).Debug("idle shutdown")
		}
	})
}

func (s *service) roundTrip(jpeg []byte) (*reply, error) {
	if err := writeFrame(s.in, jpeg); err != nil {
		return nil, err
	}
	return s.read()
}

func (s *service) read() (*reply, error) {
	line, err := s.out.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	var r reply
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("parse reply: %w", err)
	}
	return &r, nil
}

func (s *service) close() error {
	s.in.Close()
	return s.cmd.Wait()
}

// writeFrame writes one length-prefixed frame.
func writeFrame(w io.Writer, data []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// locate resolves rel against the working directory, its parent, the
// executable's directory and ~/.handsign, returning the first that exists.
func locate(rel string) string {
	dirs := []string{".", ".."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".handsign"))
	}

	for _, dir := range dirs {
		p := filepath.Join(dir, rel)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
