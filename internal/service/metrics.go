package service

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"filerelay/internal/model"
	"filerelay/internal/upload"
)

// instrumentedService records upload outcomes; it delegates the work to next.
type instrumentedService struct {
	next     UploadService
	uploads  *prometheus.CounterVec
	bytesOut prometheus.Counter
}

// NewInstrumentedUploadService wraps next with Prometheus counters registered on reg.
func NewInstrumentedUploadService(next UploadService, reg prometheus.Registerer) (UploadService, error) {
	s := &instrumentedService{
		next: next,
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uploads_total",
				Help: "Uploads handled, by result.",
			},
			[]string{"result"},
		),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Bytes forwarded to the provider.",
		}),
	}
	for _, c := range []prometheus.Collector{s.uploads, s.bytesOut} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *instrumentedService) Upload(ctx context.Context, req model.UploadRequest) (*model.UploadResult, error) {
	res, err := s.next.Upload(ctx, req)
	switch {
	case err == nil:
		s.uploads.WithLabelValues("success").Inc()
		s.bytesOut.Add(float64(res.FileSize))
	case upload.IsClientError(err):
		s.uploads.WithLabelValues("rejected").Inc()
	case errors.Is(err, upload.ErrUpstream):
		s.uploads.WithLabelValues("upstream_error").Inc()
	default:
		s.uploads.WithLabelValues("error").Inc()
	}
	return res, err
}
