package provider

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFieldLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want FieldLabel
	}{
		{"AADHAR_NUMBER", LabelIdentifier},
		{"AADHAAR_NUMBER", LabelIdentifier},
		{"NAME", LabelName},
		{"GENDER", LabelGender},
		{"DATE_OF_BIRTH", LabelDateOfBirth},
		{"ADDRESS", LabelUnknown},
		{"", LabelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFieldLabel(tt.raw))
		})
	}
}

func TestFieldLabel_String(t *testing.T) {
	assert.Equal(t, "IDENTIFIER", LabelIdentifier.String())
	assert.Equal(t, "DATE_OF_BIRTH", LabelDateOfBirth.String())
	assert.Equal(t, "UNKNOWN", FieldLabel(42).String())
}

func TestTensor_Shape(t *testing.T) {
	h, w, c := Tensor{}.Shape()
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{h, w, c})

	tensor := Tensor{
		{{1, 2, 3}, {4, 5, 6}},
	}
	h, w, c = tensor.Shape()
	assert.Equal(t, [3]int{1, 2, 3}, [3]int{h, w, c})
}

// slowDetector records the peak number of concurrent calls
type slowDetector struct {
	active int32
	peak   int32
}

func (d *slowDetector) DetectFaces(ctx context.Context, img image.Image) ([]DetectedFace, error) {
	n := atomic.AddInt32(&d.active, 1)
	for {
		p := atomic.LoadInt32(&d.peak)
		if n <= p || atomic.CompareAndSwapInt32(&d.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&d.active, -1)
	return nil, nil
}

func TestSerialize_OneCallAtATime(t *testing.T) {
	inner := &slowDetector{}
	set := Serialize(Set{Faces: inner})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = set.Faces.DetectFaces(context.Background(), nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.peak))
}

func TestSerialize_KeepsNilHandles(t *testing.T) {
	set := Serialize(Set{})

	assert.Nil(t, set.Regions)
	assert.Nil(t, set.Text)
	assert.Nil(t, set.Faces)
	assert.Nil(t, set.Verifier)
	assert.Nil(t, set.Landmarks)
	assert.Nil(t, set.Classifier)
}
