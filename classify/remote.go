package classify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ggriffiniii/bead-sorter/logic"
	"github.com/ggriffiniii/bead-sorter/util"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// RemoteConfig points at an external inspection service
type RemoteConfig struct {
	// URL is the classification endpoint. The frame is POSTed as raw RGB565
	// with width/height query parameters.
	URL string `json:"url"`
	// TimeoutMs bounds one classification request; 0 means no timeout
	TimeoutMs int `json:"timeoutMs"`
}

type remoteResult struct {
	Slot int `json:"slot"`
}

type remoteError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("an inspection service error occurred (code %d): %s", e.Code, e.Message)
}

var _ error = (*remoteError)(nil)

// Remote classifies beads by shipping frames to an inspection service over
// HTTP. It exists for rigs whose classification model is too heavy to run on
// the controller.
type Remote struct {
	cfg    RemoteConfig
	frames FrameSource
	client *resty.Client
	log    *logrus.Entry
}

var _ logic.Classifier = (*Remote)(nil)

func NewRemote(cfg RemoteConfig, frames FrameSource) *Remote {
	client := resty.New()
	if cfg.TimeoutMs > 0 {
		client.SetTimeout(time.Duration(cfg.TimeoutMs) * time.Millisecond)
	}
	return &Remote{
		cfg, frames, client,
		util.Logger.WithField("module", "RemoteClassifier"),
	}
}

func (r *Remote) Classify() (int, error) {
	data, width, height, err := r.frames.Capture()
	if err != nil {
		return 0, fmt.Errorf("could not capture frame: %v", err)
	}

	result := &remoteResult{}
	resp, err := r.client.R().
		SetHeader("Content-Type", "application/octet-stream").
		SetQueryParam("width", strconv.Itoa(width)).
		SetQueryParam("height", strconv.Itoa(height)).
		SetBody(data).
		SetResult(result).
		SetError(&remoteError{}).
		Post(r.cfg.URL)
	if err != nil {
		return 0, fmt.Errorf("inspection request failed: %v", err)
	}
	if resp.IsError() {
		return 0, resp.Error().(*remoteError)
	}
	r.log.WithField("slot", result.Slot).Debug("remote classification")
	return result.Slot, nil
}
