package doctor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/pkg/apptime"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

// LatestReviewCount is how many reviews the dashboard shows.
const LatestReviewCount = 5

type Dashboard struct {
	TotalAppointments     int                 `json:"totalAppointments"`
	CompletedAppointments int                 `json:"completedAppointments"`
	PendingAppointments   int                 `json:"pendingAppointments"`
	TotalReviews          int                 `json:"totalReviews"`
	Today                 []model.Appointment `json:"today"`
	LatestReviews         []model.Review      `json:"latestReviews"`
	Notices               []string            `json:"-"`
}

// Reviews lists the reviews left for subject. Reviews are matched by doctor
// id, or by the profile name when they carry no doctor id.
func (s *Service) Reviews(ctx context.Context, subject model.ID) ([]model.Review, error) {
	logger := zerolog.Ctx(ctx)
	filters := []repository.Filter{{repository.FieldDoctorID: subject.String()}}

	name := ""
	if profile, err := s.Profile(ctx, subject, false); err != nil {
		logger.Warn().Err(err).Msg("reviews matched by doctor id only")
	} else if profile.Name != "" {
		name = profile.Name
		filters = append(filters, repository.Filter{repository.FieldDoctorName: name})
	}

	var owned []model.Review
	seen := make(map[model.ID]bool)
	for _, filter := range filters {
		all, err := s.reviews.List(ctx, filter)
		if err != nil {
			logger.Error().Err(err).Msg(MsgFetchReviewsFailed)
			return nil, apperrors.Upstream(MsgFetchReviewsFailed, err)
		}
		for _, r := range all {
			byID := r.DoctorID == subject
			byName := r.DoctorID.IsZero() && name != "" && r.DoctorName == name
			if !byID && !byName {
				continue
			}
			if !r.ID.IsZero() {
				if seen[r.ID] {
					continue
				}
				seen[r.ID] = true
			}
			owned = append(owned, r)
		}
	}
	if owned == nil {
		owned = []model.Review{}
	}
	return owned, nil
}

// Dashboard summarizes the cached appointments and the doctor's reviews. A
// review fetch failure leaves the review figures empty and adds a notice.
func (s *Service) Dashboard(ctx context.Context, subject model.ID) (*Dashboard, error) {
	appointments, err := s.Appointments(ctx, subject, false)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalAppointments: len(appointments),
		Today:             []model.Appointment{},
		LatestReviews:     []model.Review{},
	}
	today := s.now().In(s.loc)
	for _, a := range appointments {
		switch {
		case a.AppStatus.Is(model.AppointmentStatusCompleted):
			d.CompletedAppointments++
		case a.AppStatus.Is(model.AppointmentStatusPending):
			d.PendingAppointments++
		}
		if when, err := a.When(s.loc); err == nil && apptime.SameDate(when, today) {
			d.Today = append(d.Today, a)
		}
	}

	reviews, err := s.Reviews(ctx, subject)
	if err != nil {
		d.Notices = append(d.Notices, noticeOf(err))
		return d, nil
	}
	d.TotalReviews = len(reviews)
	d.LatestReviews = LatestReviews(reviews, LatestReviewCount)
	return d, nil
}

// LatestReviews returns the last n reviews, newest first. Reviews are stored
// in submission order.
func LatestReviews(reviews []model.Review, n int) []model.Review {
	if n > len(reviews) {
		n = len(reviews)
	}
	out := make([]model.Review, 0, n)
	for i := len(reviews) - 1; i >= len(reviews)-n; i-- {
		out = append(out, reviews[i])
	}
	return out
}
