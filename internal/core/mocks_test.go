package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/config"
	"github.com/example/askdrk-backend/internal/db"
	"github.com/example/askdrk-backend/internal/models"
)

// Common test errors
var (
	ErrMockGateway = errors.New("mock gateway error")
	ErrMockStorage = errors.New("mock storage error")
	ErrMockPush    = errors.New("mock push error")
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		RazorpayKeyID:         "rzp_test_key",
		RazorpayKeySecret:     "key_secret",
		RazorpayPlanMonthly:   "plan_monthly",
		RazorpayPlanYearly:    "plan_yearly",
		RazorpayWebhookSecret: "wh_secret",
		GeminiAPIKey:          "gemini-key",
		GeminiModel:           "gemini-2.0-flash",
		TipsTotalDays:         30,
		TipsTopic:             "daily_tips",
		ChatNotificationTitle: "✅ Reply by Dr.Kanhaiya for you",
	}
}

// appliedTransition records one ApplyTransition call.
type appliedTransition struct {
	UserID         string
	SubscriptionID string
	Transition     models.Transition
}

// MockSubscriptionRepository implements db.SubscriptionRepository for testing
type MockSubscriptionRepository struct {
	mu                  sync.Mutex
	CreateFunc          func(ctx context.Context, record *models.SubscriptionRecord) error
	GetByIDFunc         func(ctx context.Context, userID, subscriptionID string) (*models.SubscriptionRecord, error)
	ApplyTransitionFunc func(ctx context.Context, userID, subscriptionID string, t models.Transition) (bool, error)
	Created             []*models.SubscriptionRecord
	Applied             []appliedTransition
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, record *models.SubscriptionRecord) error {
	m.mu.Lock()
	m.Created = append(m.Created, record)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}
	return nil
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, userID, subscriptionID string) (*models.SubscriptionRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, subscriptionID)
	}
	return nil, db.ErrNotFound
}

func (m *MockSubscriptionRepository) ApplyTransition(ctx context.Context, userID, subscriptionID string, t models.Transition) (bool, error) {
	m.mu.Lock()
	m.Applied = append(m.Applied, appliedTransition{UserID: userID, SubscriptionID: subscriptionID, Transition: t})
	m.mu.Unlock()
	if m.ApplyTransitionFunc != nil {
		return m.ApplyTransitionFunc(ctx, userID, subscriptionID, t)
	}
	return true, nil
}

// MockUserRepository implements db.UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc         func(ctx context.Context, userID string) (*models.User, error)
	RemoveFCMTokensFunc func(ctx context.Context, userID string, tokens []string) error
	Removed             []string
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID)
	}
	return nil, db.ErrNotFound
}

func (m *MockUserRepository) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	m.Removed = append(m.Removed, tokens...)
	if m.RemoveFCMTokensFunc != nil {
		return m.RemoveFCMTokensFunc(ctx, userID, tokens)
	}
	return nil
}

// MockTipRepository implements db.TipRepository with an in-memory counter
type MockTipRepository struct {
	mu      sync.Mutex
	Day     int // 0 means the counter document does not exist
	Tips    map[int]models.Tip
	Err     error
	PutFunc func(ctx context.Context, tips []models.Tip) error
}

func (m *MockTipRepository) AdvanceDay(ctx context.Context, next func(int) int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	current := m.Day
	if current == 0 {
		current = 1
	}
	m.Day = next(current)
	return m.Day, nil
}

func (m *MockTipRepository) GetByDay(ctx context.Context, day int) (*models.Tip, error) {
	tip, ok := m.Tips[day]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &tip, nil
}

func (m *MockTipRepository) PutAll(ctx context.Context, tips []models.Tip) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, tips)
	}
	if m.Tips == nil {
		m.Tips = map[int]models.Tip{}
	}
	for _, t := range tips {
		m.Tips[t.Day] = t
	}
	return nil
}

// MockPaymentGateway implements PaymentGateway for testing
type MockPaymentGateway struct {
	CreateFunc            func(ctx context.Context, params CreateSubscriptionParams) (*GatewaySubscription, error)
	FetchPaymentFunc      func(ctx context.Context, paymentID string) (*GatewayPayment, error)
	CancelFunc            func(ctx context.Context, subscriptionID string, atCycleEnd bool) (*GatewaySubscription, error)
	FetchSubscriptionFunc func(ctx context.Context, subscriptionID string) (*GatewaySubscription, error)
	LastCreate            CreateSubscriptionParams
	CancelCalls           int
}

func (m *MockPaymentGateway) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*GatewaySubscription, error) {
	m.LastCreate = params
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &GatewaySubscription{ID: "sub_test", PlanID: params.PlanID, Status: "created"}, nil
}

func (m *MockPaymentGateway) FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	if m.FetchPaymentFunc != nil {
		return m.FetchPaymentFunc(ctx, paymentID)
	}
	return &GatewayPayment{ID: paymentID, Status: "captured"}, nil
}

func (m *MockPaymentGateway) CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (*GatewaySubscription, error) {
	m.CancelCalls++
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, subscriptionID, atCycleEnd)
	}
	return &GatewaySubscription{ID: subscriptionID, Status: "cancelled"}, nil
}

func (m *MockPaymentGateway) FetchSubscription(ctx context.Context, subscriptionID string) (*GatewaySubscription, error) {
	if m.FetchSubscriptionFunc != nil {
		return m.FetchSubscriptionFunc(ctx, subscriptionID)
	}
	return &GatewaySubscription{ID: subscriptionID, Status: "active"}, nil
}

// MockPushSender implements PushSender for testing
type MockPushSender struct {
	MulticastFunc func(ctx context.Context, msg PushMessage, tokens []string) (*MulticastResult, error)
	TopicFunc     func(ctx context.Context, topic string, msg PushMessage) (string, error)
	LastMessage   PushMessage
	LastTokens    []string
	LastTopic     string
}

func (m *MockPushSender) SendMulticast(ctx context.Context, msg PushMessage, tokens []string) (*MulticastResult, error) {
	m.LastMessage, m.LastTokens = msg, tokens
	if m.MulticastFunc != nil {
		return m.MulticastFunc(ctx, msg, tokens)
	}
	res := &MulticastResult{SuccessCount: len(tokens)}
	for _, t := range tokens {
		res.Responses = append(res.Responses, TokenResult{Token: t, MessageID: "msg-" + t})
	}
	return res, nil
}

func (m *MockPushSender) SendTopic(ctx context.Context, topic string, msg PushMessage) (string, error) {
	m.LastTopic, m.LastMessage = topic, msg
	if m.TopicFunc != nil {
		return m.TopicFunc(ctx, topic, msg)
	}
	return "projects/test/messages/1", nil
}

// MockTextGenerator implements TextGenerator for testing
type MockTextGenerator struct {
	GenerateFunc func(ctx context.Context, req TextGenerationRequest) (string, error)
	LastRequest  TextGenerationRequest
	CallCount    int
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, req TextGenerationRequest) (string, error) {
	m.CallCount++
	m.LastRequest = req
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "generated", nil
}

// MockDeduplicator implements EventDeduplicator with an in-memory set
type MockDeduplicator struct {
	mu       sync.Mutex
	Seen     map[string]bool
	ClaimErr error
	Released []string
}

func (m *MockDeduplicator) Claim(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClaimErr != nil {
		return false, m.ClaimErr
	}
	if m.Seen == nil {
		m.Seen = map[string]bool{}
	}
	if m.Seen[eventID] {
		return false, nil
	}
	m.Seen[eventID] = true
	return true, nil
}

func (m *MockDeduplicator) Release(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Seen, eventID)
	m.Released = append(m.Released, eventID)
	return nil
}

func nopLogger() *zap.Logger { return zap.NewNop() }
