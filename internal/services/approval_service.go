package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/notify"
	"github.com/yukikurage/team-task-api/internal/realtime"
	"github.com/yukikurage/team-task-api/internal/repository"
)

var (
	ErrInvalidApprovalToken = errors.New("approval link is invalid or has expired")
	ErrApprovalAlreadyUsed  = errors.New("approval link has already been used")
	ErrApproverNotSet       = errors.New("no admin approver address configured")
)

// ApprovalConfig holds the settings for admin approval links
type ApprovalConfig struct {
	Secret        string
	TTL           time.Duration
	PublicBaseURL string
	ApproverEmail string
}

// ApprovalService issues and redeems signed admin approval links
type ApprovalService struct {
	userRepo repository.UserRepository
	notifier notify.Notifier
	renderer *notify.Renderer
	cfg      ApprovalConfig
	events   eventPublisher
	now      func() time.Time
}

type approvalClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	userRepo repository.UserRepository,
	notifier notify.Notifier,
	renderer *notify.Renderer,
	broker realtime.Broker,
	cfg ApprovalConfig,
	log logrus.FieldLogger,
) *ApprovalService {
	if cfg.TTL <= 0 {
		cfg.TTL = constants.DefaultApprovalTTL
	}
	return &ApprovalService{
		userRepo: userRepo,
		notifier: notifier,
		renderer: renderer,
		cfg:      cfg,
		events:   eventPublisher{broker: broker, log: log},
		now:      time.Now,
	}
}

// IssueToken signs an approval token for the user
func (s *ApprovalService) IssueToken(userID string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.cfg.TTL)

	claims := approvalClaims{
		Purpose: constants.ApprovalTokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign approval token: %w", err)
	}
	return signed, expires, nil
}

// ApprovalLink builds the link an approver follows
func (s *ApprovalService) ApprovalLink(token string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/api/admin/approve?token=" + url.QueryEscape(token)
}

// RequestApproval emails the approver a link that promotes the pending user
func (s *ApprovalService) RequestApproval(ctx context.Context, user *models.User) error {
	if s.cfg.ApproverEmail == "" {
		return ErrApproverNotSet
	}

	token, expires, err := s.IssueToken(user.ID)
	if err != nil {
		return err
	}

	email, err := s.renderer.AdminApprovalEmail(notify.AdminApproval{
		To:           s.cfg.ApproverEmail,
		Name:         user.Name,
		Email:        user.Email,
		ApprovalLink: s.ApprovalLink(token),
		Expires:      expires,
	})
	if err != nil {
		return err
	}

	return s.notifier.Send(ctx, email)
}

// Approve redeems a token. A token can promote its user only once.
func (s *ApprovalService) Approve(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.verify(token)
	if err != nil {
		return nil, err
	}

	user, err := findUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RolePending {
		return nil, ErrApprovalAlreadyUsed
	}

	promoted, err := s.userRepo.PromotePending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}
	if !promoted {
		return nil, ErrApprovalAlreadyUsed
	}

	user.Role = models.RoleAdmin
	user.Admin = true

	s.events.publish(ctx, realtime.EventUserUpdated, user.ID, realtime.UserTopic(user.ID))
	return user, nil
}

func (s *ApprovalService) verify(token string) (string, error) {
	claims := &approvalClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidApprovalToken
	}
	if claims.Purpose != constants.ApprovalTokenPurpose || claims.Subject == "" {
		return "", ErrInvalidApprovalToken
	}
	return claims.Subject, nil
}
