package service

import (
	"context"

	"github.com/rs/zerolog"

	"holidaze/internal/domain"
	"holidaze/internal/events"
	"holidaze/internal/models"
	"holidaze/internal/session"
	"holidaze/internal/validation"
)

type ProfileService struct {
	api      domain.AccountAPI
	session  *session.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewProfileService(api domain.AccountAPI, sess *session.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *ProfileService {
	return &ProfileService{
		api:      api,
		session:  sess,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Form returns the edit form prefilled from the session.
func (s *ProfileService) Form() validation.ProfileForm {
	snap := s.session.Snapshot()
	form := validation.ProfileForm{
		Avatar:       models.Media{Alt: "Profile avatar"},
		Banner:       models.Media{Alt: "Profile banner"},
		VenueManager: snap.IsVenueManager,
	}
	if snap.User == nil {
		return form
	}
	form.Bio = snap.User.Bio
	if a := snap.User.Avatar; a != nil {
		form.Avatar.URL = a.URL
		if a.Alt != "" {
			form.Avatar.Alt = a.Alt
		}
	}
	if b := snap.User.Banner; b != nil {
		form.Banner.URL = b.URL
		if b.Alt != "" {
			form.Banner.Alt = b.Alt
		}
	}
	return form
}

// DiffProfile keeps only the fields that differ from the session. Images are
// compared by URL.
func DiffProfile(snap models.Session, form validation.ProfileForm) models.ProfileUpdate {
	var user models.SessionUser
	if snap.User != nil {
		user = *snap.User
	}

	var upd models.ProfileUpdate
	if form.Bio != user.Bio {
		bio := form.Bio
		upd.Bio = &bio
	}
	if user.Avatar == nil || form.Avatar.URL != user.Avatar.URL {
		avatar := form.Avatar
		upd.Avatar = &avatar
	}
	if user.Banner == nil || form.Banner.URL != user.Banner.URL {
		banner := form.Banner
		upd.Banner = &banner
	}
	if form.VenueManager != snap.IsVenueManager {
		vm := form.VenueManager
		upd.VenueManager = &vm
	}
	return upd
}

// Update validates the form, sends the changed fields and applies the
// response to the session. With nothing changed it returns nil, nil.
func (s *ProfileService) Update(ctx context.Context, form validation.ProfileForm) (*models.Profile, error) {
	snap := s.session.Snapshot()
	if snap.User == nil || !snap.IsLoggedIn {
		return nil, ErrLoginRequired
	}

	clean, fe := validation.ValidateProfile(form)
	if fe != nil {
		return nil, fe
	}

	upd := DiffProfile(snap, clean)
	if upd.IsEmpty() {
		s.logger.Debug().Str("user", snap.User.Name).Msg("profile unchanged")
		return nil, nil
	}

	profile, err := s.api.UpdateProfile(ctx, snap.Token, snap.User.Name, upd)
	if err != nil {
		s.logger.Warn().Err(err).Str("user", snap.User.Name).Msg("failed to update profile")
		return nil, err
	}

	if err := s.apply(ctx, profile); err != nil {
		return profile, err
	}

	s.publishUpdated(snap.User.Name, upd)
	return profile, nil
}

// apply copies each returned field into the session.
func (s *ProfileService) apply(ctx context.Context, p *models.Profile) error {
	if p.Bio != nil {
		if err := s.session.UpdateBio(ctx, *p.Bio); err != nil {
			return err
		}
	}
	if p.Avatar != nil {
		if err := s.session.UpdateAvatar(ctx, *p.Avatar); err != nil {
			return err
		}
	}
	if p.Banner != nil {
		if err := s.session.UpdateBanner(ctx, *p.Banner); err != nil {
			return err
		}
	}
	if p.VenueManager != nil {
		if err := s.session.UpdateVenueManager(ctx, *p.VenueManager); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProfileService) publishUpdated(name string, upd models.ProfileUpdate) {
	if s.eventBus == nil {
		return
	}
	var fields []string
	if upd.Bio != nil {
		fields = append(fields, "bio")
	}
	if upd.Avatar != nil {
		fields = append(fields, "avatar")
	}
	if upd.Banner != nil {
		fields = append(fields, "banner")
	}
	if upd.VenueManager != nil {
		fields = append(fields, "venueManager")
	}
	payload := events.ProfileEventPayload{UserName: name, Fields: fields}
	if err := s.eventBus.PublishJSON(events.EventProfileUpdated, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish profile event")
	}
}
