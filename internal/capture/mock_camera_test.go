package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func frames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	out := make([]*gocv.Mat, n)
	for i := range out {
		m := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC1)
		m.SetUCharAt(0, 0, uint8(i+1))
		out[i] = &m
		t.Cleanup(func() { m.Close() })
	}
	return out
}

func readMarkers(t *testing.T, cam Camera, n int) []uint8 {
	t.Helper()
	var got []uint8
	for i := 0; i < n; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		got = append(got, f.GetUCharAt(0, 0))
		f.Close()
	}
	return got
}

func TestMockCamera(t *testing.T) {
	var _ Camera = (*MockCamera)(nil)
	var _ Camera = (*VideoCamera)(nil)

	t.Run("once", func(t *testing.T) {
		cam := NewMockCamera(frames(t, 2), false)
		if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
			t.Errorf("ReadFrame() before Open error = %v", err)
		}

		cam.Open()
		defer cam.Close()

		if got := readMarkers(t, cam, 2); got[0] != 1 || got[1] != 2 {
			t.Errorf("frames = %v, want [1 2]", got)
		}
		if _, err := cam.ReadFrame(); !errors.Is(err, ErrEndOfStream) {
			t.Errorf("ReadFrame() error = %v, want ErrEndOfStream", err)
		}
		if cam.Reads() != 2 {
			t.Errorf("Reads() = %d, want 2", cam.Reads())
		}
	})

	t.Run("loop", func(t *testing.T) {
		cam := NewMockCamera(frames(t, 2), true)
		cam.Open()
		defer cam.Close()

		got := readMarkers(t, cam, 5)
		want := []uint8{1, 2, 1, 2, 1}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("frames = %v, want %v", got, want)
			}
		}
	})

	t.Run("reopen rewinds", func(t *testing.T) {
		cam := NewMockCamera(frames(t, 3), false)
		cam.Open()
		readMarkers(t, cam, 2)
		cam.Close()
		if cam.IsOpen() {
			t.Error("IsOpen() after Close()")
		}

		cam.Open()
		defer cam.Close()
		if got := readMarkers(t, cam, 1); got[0] != 1 {
			t.Errorf("first frame after reopen = %d, want 1", got[0])
		}
	})

	t.Run("empty", func(t *testing.T) {
		cam := NewMockCamera(nil, true)
		cam.Open()
		defer cam.Close()

		if _, err := cam.ReadFrame(); !errors.Is(err, ErrEndOfStream) {
			t.Errorf("ReadFrame() error = %v, want ErrEndOfStream", err)
		}
	})

	t.Run("clones are independent", func(t *testing.T) {
		src := frames(t, 1)
		cam := NewMockCamera(src, false)
		cam.Open()
		defer cam.Close()

		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatal(err)
		}
		f.SetUCharAt(0, 0, 99)
		f.Close()
		if src[0].GetUCharAt(0, 0) != 1 {
			t.Error("modifying a read frame changed the source")
		}
	})
}
