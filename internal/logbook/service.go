// Package logbook reads and creates the user's log entries.
package logbook

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mmcdole/cinelog/internal/domain"
)

// Service orchestrates log entry reads and validated writes.
type Service struct {
	client   domain.LogRepository
	session  domain.Session
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a new logbook service.
func NewService(client domain.LogRepository, sess domain.Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{client: client, session: sess, now: time.Now, logger: logger}
	s.validate = s.newValidator()
	return s
}

func (s *Service) newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("halfstep", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return math.Mod(f*2, 1) == 0
	})
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		now := s.now()
		endOfToday := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		return t.Before(endOfToday)
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(domain.LogDraft)
		if d.EpisodeNumber != nil && d.SeasonNumber == nil {
			sl.ReportError(d.EpisodeNumber, "episodeNumber", "EpisodeNumber", "needseason", "")
		}
		if d.ContentType == string(domain.ContentTypeMovie) && d.SeasonNumber != nil {
			sl.ReportError(d.SeasonNumber, "seasonNumber", "SeasonNumber", "movienoseason", "")
		}
	}, domain.LogDraft{})

	return v
}

var messages = map[string]string{
	"required":      "is required",
	"gt":            "must be positive",
	"gte":           "is too small",
	"lte":           "is too large",
	"oneof":         "must be movie or tv",
	"max":           "is too long",
	"halfstep":      "must be in steps of 0.5",
	"notfuture":     "can't be in the future",
	"needseason":    "needs a season number",
	"movienoseason": "movies have no seasons",
}

// Validate checks a draft and returns domain.ValidationErrors for every bad field
func (s *Service) Validate(draft domain.LogDraft) error {
	err := s.validate.Struct(draft)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		if fe.Field() == "rating" && (fe.Tag() == "gte" || fe.Tag() == "lte") {
			msg = "must be between 0.5 and 10"
		}
		out = append(out, domain.ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}

// Create validates the draft and posts it. Invalid drafts never reach the network.
func (s *Service) Create(ctx context.Context, draft domain.LogDraft) (*domain.LogEntry, error) {
	if s.session.Anonymous() {
		return nil, domain.ErrAnonymous
	}
	if err := s.Validate(draft); err != nil {
		s.logger.Debug("rejected log draft", "error", err)
		return nil, err
	}

	entry, err := s.client.CreateLog(ctx, draft)
	if err != nil {
		s.logger.Error("failed to create log", "contentId", draft.ContentID, "contentType", draft.ContentType, "error", err)
		return nil, err
	}
	s.logger.Info("created log", "logId", entry.LogID, "contentId", draft.ContentID)
	return entry, nil
}

// ForContent returns the user's logs for ref, newest watch first
func (s *Service) ForContent(ctx context.Context, ref domain.ContentRef) ([]domain.LogEntry, error) {
	if s.session.Anonymous() {
		return nil, domain.ErrAnonymous
	}

	logs, err := s.client.Logs(ctx, ref)
	if err != nil {
		s.logger.Error("failed to fetch logs", "ref", ref.Key(), "error", err)
		return nil, err
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].WatchedDate.After(logs[j].WatchedDate)
	})
	return logs, nil
}
