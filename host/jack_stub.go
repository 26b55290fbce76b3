//go:build !jack

package host

import (
	"errors"

	"github.com/cwbudde/algo-nesynth/synth"
)

// ErrNoJack is returned when the binary was built without the jack tag.
var ErrNoJack = errors.New("built without jack support (rebuild with -tags jack)")

type JackClient struct{}

func NewJackClient(name string, e *synth.Engine[float32]) (*JackClient, error) {
	return nil, ErrNoJack
}

func (jc *JackClient) Start() error { return ErrNoJack }

func (jc *JackClient) Close() error { return nil }
