package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// FrameBuffer keeps the latest rendered frame as JPEG and serves it as an
// MJPEG stream.
type FrameBuffer struct {
	log    logrus.FieldLogger
	mu     sync.Mutex
	jpeg   []byte
	seq    uint64
	notify chan struct{}
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer(log logrus.FieldLogger) *FrameBuffer {
	return &FrameBuffer{
		log:    log.WithField("component", "stream"),
		notify: make(chan struct{}),
	}
}

// Publish encodes frame and wakes waiting streams. The Mat is not retained.
func (b *FrameBuffer) Publish(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		b.log.WithError(err).Debug("failed to encode frame")
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	b.set(data)
}

func (b *FrameBuffer) set(data []byte) {
	b.mu.Lock()
	b.jpeg = data
	b.seq++
	close(b.notify)
	b.notify = make(chan struct{})
	b.mu.Unlock()
}

// Latest returns the most recent JPEG and its sequence number. seq is zero
// until the first frame arrives.
func (b *FrameBuffer) Latest() (jpeg []byte, seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

func (b *FrameBuffer) next(after uint64) ([]byte, uint64, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq > after {
		return b.jpeg, b.seq, nil
	}
	return nil, after, b.notify
}

// ServeHTTP streams MJPEG frames to connected clients.
func (b *FrameBuffer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var seq uint64
	for {
		data, next, wait := b.next(seq)
		if wait != nil {
			select {
			case <-r.Context().Done():
				return
			case <-wait:
			}
			continue
		}
		seq = next

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
