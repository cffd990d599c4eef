package survey

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"earnplay-backend/pkg/config"
	"earnplay-backend/pkg/db/option"
	"earnplay-backend/pkg/errutil"
	"earnplay-backend/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dashboardLimit = 10

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	provider Client
	cache    *redis.Client
	cacheTTL time.Duration

	profiles     repository.Repository[UserProfile]
	completions  repository.Repository[SurveyCompletion]
	transactions repository.Repository[SurveyTransaction]
}

type ServiceParams struct {
	fx.In
	Config   *config.Config
	DB       *gorm.DB
	Node     *snowflake.Node
	Provider Client
	Cache    *redis.Client `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		provider: p.Provider,
		cache:    p.Cache,
		cacheTTL: p.Config.SurveyProvider.CacheTTL,

		profiles:     repository.ProvideStore[UserProfile](p.DB),
		completions:  repository.ProvideStore[SurveyCompletion](p.DB),
		transactions: repository.ProvideStore[SurveyTransaction](p.DB),
	}
}

// ensureProfile returns the user's survey profile, creating it on first use.
// The partner user id is minted once and never changes; the partner keys all
// callbacks to it.
func (s *Service) ensureProfile(ctx context.Context, userID string) (*UserProfile, error) {
	profile, err := s.profiles.FindOne(ctx, &UserProfile{UserID: userID})
	if err != nil {
		return nil, errutil.Internal("failed to query user profile", err)
	}
	if profile != nil {
		return profile, nil
	}

	profile = &UserProfile{
		ID:            s.node.Generate().String(),
		UserID:        userID,
		PartnerUserID: s.node.Generate().String(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := s.profiles.FindOne(ctx, &UserProfile{UserID: userID})
			if ferr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, errutil.Internal("failed to create user profile", err)
	}
	return profile, nil
}

// Surveys lists the partner's available surveys for the user alongside the
// profile balance, serving the list from the short-lived redis cache when
// possible. Cache failures degrade to a direct provider call.
func (s *Service) Surveys(ctx context.Context, userID string) ([]Survey, *UserProfile, error) {
	profile, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	cacheKey := "provider:surveys:" + profile.PartnerUserID
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Survey
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, profile, nil
			}
		}
	}

	surveys, err := s.provider.ListSurveys(ctx, profile.PartnerUserID)
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(surveys); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
				zap.L().Warn("failed to cache survey list", zap.Error(err))
			}
		}
	}
	return surveys, profile, nil
}

// StartSurvey mints a partner survey link and records the attempt as a
// started completion. The link is minted before the row is written so a
// provider failure never leaves a blocking started row behind.
func (s *Service) StartSurvey(ctx context.Context, userID, surveyID string) (*StartSurveyResult, error) {
	if surveyID == "" {
		return nil, errutil.BadRequest("survey_id required", nil)
	}

	profile, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	clickID := s.node.Generate().String()
	link, err := s.provider.MintStartURL(ctx, profile.PartnerUserID, surveyID, clickID)
	if err != nil {
		return nil, err
	}

	completion := &SurveyCompletion{
		ID:        s.node.Generate().String(),
		ProfileID: profile.ID,
		SurveyID:  surveyID,
		ClickID:   clickID,
		Status:    StatusStarted,
		StartedAt: time.Now(),
	}
	if err := s.completions.Create(ctx, completion); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errutil.Conflict("survey already started", err)
		}
		return nil, errutil.Internal("failed to record survey start", err)
	}

	return &StartSurveyResult{SurveyURL: link, ClickID: clickID}, nil
}

// Dashboard returns the profile with its most recent completions and
// transactions, newest first.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	profile, err := s.profiles.FindOne(ctx, &UserProfile{UserID: userID})
	if err != nil {
		return nil, errutil.Internal("failed to query user profile", err)
	}
	if profile == nil {
		return nil, errutil.NotFound("user profile not found", nil)
	}

	completions, err := s.completions.Find(ctx, &SurveyCompletion{ProfileID: profile.ID},
		option.WithSortBy(option.QuerySortBy{SortBy: "started_at", OrderBy: "desc"}),
		option.WithLimit(dashboardLimit),
	)
	if err != nil {
		return nil, errutil.Internal("failed to query survey completions", err)
	}

	transactions, err := s.transactions.Find(ctx, &SurveyTransaction{ProfileID: profile.ID},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.WithLimit(dashboardLimit),
	)
	if err != nil {
		return nil, errutil.Internal("failed to query survey transactions", err)
	}

	return &Dashboard{
		UserProfile:        profile,
		RecentCompletions:  completions,
		RecentTransactions: transactions,
	}, nil
}
