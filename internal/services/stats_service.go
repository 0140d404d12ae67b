package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"energypolicy/internal/config"
	"energypolicy/internal/infrastructure"
	"energypolicy/internal/stats"
)

// StatView is the parsed form of a statistic label
type StatView struct {
	Numeric          bool    `json:"numeric"`
	Prefix           string  `json:"prefix"`
	Number           float64 `json:"number"`
	FractionalDigits int     `json:"fractionalDigits"`
	Suffix           string  `json:"suffix"`
	Display          string  `json:"display"`
}

// CountUpRequest describes one count-up animation. A nil Duration selects
// the configured default.
type CountUpRequest struct {
	Label         string
	Duration      *time.Duration
	ReducedMotion bool
}

// StatsService parses statistic labels and prepares their count-ups
type StatsService struct {
	cfg       config.AnimationConfig
	scheduler stats.Scheduler
	logger    *slog.Logger
}

// StatsOption configures a StatsService
type StatsOption func(*StatsService)

// WithStatsScheduler replaces the frame scheduler used by CountUp
func WithStatsScheduler(s stats.Scheduler) StatsOption {
	return func(svc *StatsService) { svc.scheduler = s }
}

// NewStatsService creates a stats service
func NewStatsService(cfg config.AnimationConfig, logger *slog.Logger, opts ...StatsOption) *StatsService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	s := &StatsService{
		cfg:    cfg,
		logger: logger.With(slog.String("service", "stats")),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = stats.NewFrameScheduler(cfg.FrameInterval)
	}
	return s
}

// Parse splits label into its numeric core and decoration. A label without
// a numeral is reported with Numeric false and displayed unchanged.
func (s *StatsService) Parse(label string) (StatView, error) {
	if strings.TrimSpace(label) == "" {
		return StatView{}, ErrEmptyLabel
	}
	p, ok := stats.Parse(label)
	if !ok {
		return StatView{Display: label}, nil
	}
	return StatView{
		Numeric:          true,
		Prefix:           p.Prefix,
		Number:           p.Number,
		FractionalDigits: p.FractionalDigits,
		Suffix:           p.Suffix,
		Display:          p.String(),
	}, nil
}

// CountUp prepares the animation of req.Label. The caller starts it.
func (s *StatsService) CountUp(ctx context.Context, req CountUpRequest) (*stats.Animation, stats.ParsedStat, error) {
	if strings.TrimSpace(req.Label) == "" {
		return nil, stats.ParsedStat{}, ErrEmptyLabel
	}
	p, err := stats.ParseE(req.Label)
	if err != nil {
		return nil, stats.ParsedStat{}, err
	}

	d := s.cfg.Duration
	if req.Duration != nil {
		if *req.Duration < 0 {
			return nil, stats.ParsedStat{}, ErrInvalidDuration
		}
		d = *req.Duration
	}
	reduced := req.ReducedMotion || s.cfg.ReducedMotion

	s.logger.DebugContext(ctx, "count-up prepared",
		slog.String("label", req.Label),
		slog.Duration("duration", d),
		slog.Bool("reduced_motion", reduced))

	anim := stats.Animate(ctx, p, int(d/time.Millisecond),
		stats.WithScheduler(s.scheduler),
		stats.WithReducedMotion(reduced))
	return anim, p, nil
}
