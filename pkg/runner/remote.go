package runner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/concurrency"
	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
)

const (
	interruptTimeout        = 5 * time.Second
	defaultProgressInterval = 500 * time.Millisecond
)

// RemoteRunner delegates to a stable-diffusion-webui img2img endpoint
type RemoteRunner struct {
	Images    BlobStore
	Endpoints EndpointResolver
	Interval  time.Duration
	Client    *http.Client
	// Gate throttles cold starts, nil means unlimited
	Gate *concurrency.Gate
}

func (r *RemoteRunner) Run(ctx context.Context, req *Request, report Reporter) (*models.ResultArtifact, error) {
	endpoint, err := r.Endpoints.GetEndpoint(req.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve endpoint: %w", err)
	}
	endpoint = strings.TrimSuffix(endpoint, "/")
	data, _, err := r.Images.Get(ctx, req.Image.Key)
	if err != nil {
		return nil, fmt.Errorf("read input image: %w", err)
	}
	body, err := json.Marshal(buildImg2Img(req, base64.StdEncoding.EncodeToString(data)))
	if err != nil {
		return nil, err
	}

	if r.Gate != nil {
		cold, err := r.Gate.Acquire(ctx, req.Model)
		if err != nil {
			return nil, err
		}
		defer r.Gate.Release(req.Model)
		if cold {
			logrus.WithFields(logrus.Fields{"jobId": req.JobID, "model": req.Model}).Info("cold start")
			defer r.Gate.Warm(req.Model)
		}
	}

	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	go r.pollProgress(progressCtx, endpoint, req.JobID, report)

	result, code, err := r.predict(ctx, endpoint, body)
	if ctx.Err() != nil {
		r.interrupt(endpoint, req.JobID)
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProcessFailed, err.Error())
	}
	if code != http.StatusOK || result == nil || len(result.Images) == 0 {
		return nil, fmt.Errorf("%w: status %d", ErrProcessFailed, code)
	}
	output, err := base64.StdEncoding.DecodeString(result.Images[0])
	if err != nil {
		return nil, fmt.Errorf("%w: decode output %s", ErrProcessFailed, err.Error())
	}
	key := fmt.Sprintf("results/%s.png", req.JobID)
	if err := r.Images.Put(ctx, key, output, "image/png"); err != nil {
		return nil, fmt.Errorf("output image err=%s", err.Error())
	}
	return &models.ResultArtifact{
		Key:         key,
		Name:        resultName(req.Image.Name),
		ContentType: "image/png",
		Size:        int64(len(output)),
		JobID:       req.JobID,
	}, nil
}

func buildImg2Img(req *Request, image string) *models.Img2ImgRequest {
	seed := req.Params.Seed
	if req.Params.UseRandomSeed {
		seed = -1
	}
	controlNet := models.ControlNet{Args: []models.Args{{
		Enabled:       true,
		Image:         image,
		Module:        "none",
		Weight:        req.Params.AdaptorConditioning,
		GuidanceStart: 0,
		GuidanceEnd:   1,
		PixelPerfect:  true,
	}}}
	return &models.Img2ImgRequest{
		InitImages:        []string{image},
		DenoisingStrength: req.Params.Strength,
		Steps:             req.Params.Steps,
		Seed:              seed,
		CfgScale:          req.Params.GuidanceScale,
		Styles:            []string{req.Preset},
		OverrideSettings: map[string]interface{}{
			"sd_model_checkpoint": req.Model,
		},
		AlwaysonScripts: map[string]interface{}{
			"controlnet": controlNet,
		},
		OverrideSettingsRestoreAfterwards: true,
	}
}

func (r *RemoteRunner) predict(ctx context.Context, endpoint string, body []byte) (*models.Img2ImgResult, int, error) {
	url := fmt.Sprintf("%s%s", endpoint, config.IMG2IMG)
	req, err := http.NewRequestWithContext(ctx, config.HTTP_POST, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}
	var result *models.Img2ImgResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, resp.StatusCode, err
	}
	return result, resp.StatusCode, nil
}

// pollProgress report sd progress*100 until ctx done, poll errors are logged only
func (r *RemoteRunner) pollProgress(ctx context.Context, endpoint, jobId string, report Reporter) {
	if report == nil {
		return
	}
	interval := r.Interval
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	url := fmt.Sprintf("%s%s", endpoint, config.PROGRESS)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		req, err := http.NewRequestWithContext(ctx, config.HTTP_GET, url, nil)
		if err != nil {
			return
		}
		resp, err := r.Client.Do(req)
		if err != nil {
			if ctx.Err() == nil {
				logrus.WithFields(logrus.Fields{"jobId": jobId}).Warnf("get progress err=%s", err.Error())
			}
			continue
		}
		var result models.ProgressResult
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			logrus.WithFields(logrus.Fields{"jobId": jobId}).Warnf("decode progress err=%s", err.Error())
			continue
		}
		if result.Progress > 0 {
			report(result.Progress * 100)
		}
	}
}

func (r *RemoteRunner) interrupt(endpoint, jobId string) {
	ctx, cancel := context.WithTimeout(context.Background(), interruptTimeout)
	defer cancel()
	url := fmt.Sprintf("%s%s", endpoint, config.INTERRUPT)
	req, err := http.NewRequestWithContext(ctx, config.HTTP_POST, url, nil)
	if err != nil {
		return
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{"jobId": jobId}).Warnf("interrupt err=%s", err.Error())
		return
	}
	resp.Body.Close()
}

func resultName(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	if name == "" {
		name = "result"
	}
	return name + "_styled.png"
}
