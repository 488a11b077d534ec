package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
)

// ProfileApplication manages configuration profiles.
type ProfileApplication struct {
	profileRepo domain.ProfileRepository
	logger      *slog.Logger
}

func NewProfileApplication(profileRepo domain.ProfileRepository, logger *slog.Logger) *ProfileApplication {
	return &ProfileApplication{profileRepo: profileRepo, logger: logger}
}

func (a *ProfileApplication) CreateProfile(ctx context.Context, tenantID uuid.UUID, name, numberPrefix, routingPolicy, description string) (*domain.ConfigurationProfile, error) {
	profile := domain.NewConfigurationProfile(uuid.New(), tenantID, name, numberPrefix, routingPolicy, description)
	if err := a.profileRepo.Create(ctx, profile); err != nil {
		a.logger.ErrorContext(ctx, "failed to create profile", "error", err, "tenant_id", tenantID, "name", name)
		return nil, err
	}
	a.logger.InfoContext(ctx, "profile created", "tenant_id", tenantID, "profile_id", profile.ID)
	return profile, nil
}

func (a *ProfileApplication) GetProfile(ctx context.Context, id, tenantID uuid.UUID) (*domain.ConfigurationProfile, error) {
	return a.profileRepo.GetByID(ctx, id, tenantID)
}

func (a *ProfileApplication) ListProfiles(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*domain.ConfigurationProfile, error) {
	return a.profileRepo.ListByTenant(ctx, tenantID, offset, limit)
}

func (a *ProfileApplication) UpdateProfile(ctx context.Context, id, tenantID uuid.UUID, name, numberPrefix, routingPolicy, description string) (*domain.ConfigurationProfile, error) {
	profile, err := a.profileRepo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	profile.Name = name
	profile.NumberPrefix = numberPrefix
	profile.RoutingPolicy = routingPolicy
	profile.Description = description
	if err := a.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (a *ProfileApplication) DeleteProfile(ctx context.Context, id, tenantID uuid.UUID) error {
	return a.profileRepo.Delete(ctx, id, tenantID)
}

// ApplyProfile resolves a profile into form prefill values. It has no side
// effects; downstream forms decide what to do with the values.
func (a *ProfileApplication) ApplyProfile(ctx context.Context, id, tenantID uuid.UUID) (*domain.ProfilePrefill, error) {
	profile, err := a.profileRepo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return &domain.ProfilePrefill{
		NumberPrefix:  profile.NumberPrefix,
		RoutingPolicy: profile.RoutingPolicy,
	}, nil
}
