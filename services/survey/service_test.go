package survey

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"earnplay-backend/pkg/config"
	"earnplay-backend/pkg/errutil"
	"earnplay-backend/services/testutil"
)

type clientStub struct {
	surveys   []Survey
	listErr   error
	listCalls int

	link    string
	mintErr error
}

func (c *clientStub) ListSurveys(ctx context.Context, partnerUserID string) ([]Survey, error) {
	c.listCalls++
	return c.surveys, c.listErr
}

func (c *clientStub) MintStartURL(ctx context.Context, partnerUserID, surveyID, clickID string) (string, error) {
	if c.mintErr != nil {
		return "", c.mintErr
	}
	return c.link, nil
}

func (c *clientStub) VerifySignature(payload []byte, signature string) bool {
	return true
}

func newTestSurveyService(t *testing.T, stub *clientStub) (*Service, *gorm.DB) {
	db := testutil.NewTestDB(t, &UserProfile{}, &SurveyCompletion{}, &SurveyTransaction{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.SurveyProvider.CacheTTL = time.Minute

	svc := NewService(ServiceParams{Config: cfg, DB: db, Node: node, Provider: stub})
	return svc, db
}

func TestSurveysCreatesProfileOnFirstUse(t *testing.T) {
	stub := &clientStub{surveys: []Survey{{ID: "s-1", Name: "Shopping habits", Reward: 1.75}}}
	svc, db := newTestSurveyService(t, stub)

	surveys, profile, err := svc.Surveys(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, surveys, 1)
	require.Zero(t, profile.AvailableBalance)

	_, _, err = svc.Surveys(context.Background(), "user-1")
	require.NoError(t, err)

	var profiles []UserProfile
	require.NoError(t, db.Find(&profiles).Error)
	require.Len(t, profiles, 1)
	require.Equal(t, "user-1", profiles[0].UserID)
	require.NotEmpty(t, profiles[0].PartnerUserID)

	// no cache wired in tests, so every call hits the provider
	require.Equal(t, 2, stub.listCalls)
}

func TestStartSurveyRecordsStartedCompletion(t *testing.T) {
	stub := &clientStub{link: "https://partner.example/start/s-1"}
	svc, db := newTestSurveyService(t, stub)

	result, err := svc.StartSurvey(context.Background(), "user-1", "s-1")
	require.NoError(t, err)
	require.Equal(t, "https://partner.example/start/s-1", result.SurveyURL)
	require.NotEmpty(t, result.ClickID)

	var completion SurveyCompletion
	require.NoError(t, db.First(&completion, "click_id = ?", result.ClickID).Error)
	require.Equal(t, StatusStarted, completion.Status)
	require.Equal(t, "s-1", completion.SurveyID)
}

func TestStartSurveyTwiceConflicts(t *testing.T) {
	stub := &clientStub{link: "https://partner.example/start/s-1"}
	svc, db := newTestSurveyService(t, stub)

	_, err := svc.StartSurvey(context.Background(), "user-1", "s-1")
	require.NoError(t, err)

	_, err = svc.StartSurvey(context.Background(), "user-1", "s-1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusConflict, errutil.StatusOf(err))

	var count int64
	require.NoError(t, db.Model(&SurveyCompletion{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestStartSurveyProviderFailureLeavesNoRow(t *testing.T) {
	stub := &clientStub{mintErr: errutil.ServiceUnavailable("survey provider unreachable", nil)}
	svc, db := newTestSurveyService(t, stub)

	_, err := svc.StartSurvey(context.Background(), "user-1", "s-1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusServiceUnavailable, errutil.StatusOf(err))

	var count int64
	require.NoError(t, db.Model(&SurveyCompletion{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestStartSurveyRequiresSurveyID(t *testing.T) {
	svc, _ := newTestSurveyService(t, &clientStub{})

	_, err := svc.StartSurvey(context.Background(), "user-1", "")
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))
}

func TestDashboardRequiresProfile(t *testing.T) {
	svc, _ := newTestSurveyService(t, &clientStub{})

	_, err := svc.Dashboard(context.Background(), "user-1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestDashboardReturnsRecentActivityNewestFirst(t *testing.T) {
	svc, db := newTestSurveyService(t, &clientStub{})

	profile := &UserProfile{
		ID:               "profile-1",
		UserID:           "user-1",
		PartnerUserID:    "partner-1",
		AvailableBalance: 4.25,
		TotalEarnings:    9.00,
	}
	require.NoError(t, db.Create(profile).Error)

	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 12; i++ {
		require.NoError(t, db.Create(&SurveyCompletion{
			ID:        fmt.Sprintf("completion-%d", i),
			ProfileID: profile.ID,
			SurveyID:  fmt.Sprintf("survey-%d", i),
			ClickID:   fmt.Sprintf("click-%d", i),
			Status:    StatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
		require.NoError(t, db.Create(&SurveyTransaction{
			ID:        fmt.Sprintf("txn-%d", i),
			ProfileID: profile.ID,
			Amount:    0.50,
			Type:      TypeSurveyReward,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	dashboard, err := svc.Dashboard(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 4.25, dashboard.UserProfile.AvailableBalance)
	require.Equal(t, 9.00, dashboard.UserProfile.TotalEarnings)

	require.Len(t, dashboard.RecentCompletions, 10)
	require.Equal(t, "completion-11", dashboard.RecentCompletions[0].ID)
	require.Equal(t, "completion-2", dashboard.RecentCompletions[9].ID)

	require.Len(t, dashboard.RecentTransactions, 10)
	require.Equal(t, "txn-11", dashboard.RecentTransactions[0].ID)
}
