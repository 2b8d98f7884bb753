// Package account отдаёт пользователю его профиль и доступ к материалам курса.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/models"
)

var (
	// ErrInvalidPhone возвращается, если телефон не из 10-15 цифр.
	ErrInvalidPhone = errors.New("phone must contain 10 to 15 digits")
	// ErrEmptyLesson возвращается, если не указан идентификатор урока.
	ErrEmptyLesson = errors.New("lesson must not be empty")
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
	maxLessonLen   = 64
)

// UserRepository описывает операции хранилища, нужные сервису.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
	AddProgress(ctx context.Context, id int64, lesson string) ([]string, error)
}

// Course — состояние курса для пользователя.
type Course struct {
	Paid     bool         `json:"paid"`
	Plan     *models.Plan `json:"plan,omitempty"`
	VideoURL string       `json:"video_url,omitempty"`
	Progress []string     `json:"progress"`
}

// Profile содержит публичные данные пользователя.
type Profile struct {
	ID       int64        `json:"id"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Name     string       `json:"name"`
	Phone    string       `json:"phone"`
	Paid     bool         `json:"paid"`
	Plan     *models.Plan `json:"plan,omitempty"`
}

// Service реализует просмотр курса и редактирование профиля.
type Service struct {
	repo   UserRepository
	videos map[models.Plan]string
	log    *slog.Logger
}

// NewService создаёт Service. videos сопоставляет тарифу ссылку на видео курса.
func NewService(repo UserRepository, videos map[models.Plan]string, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		videos: videos,
		log:    log,
	}
}

// Course возвращает ссылку на видео только оплатившему пользователю.
func (s *Service) Course(ctx context.Context, userID int64) (*Course, error) {
	const op = "services.account.Course"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	course := &Course{
		Paid:     user.Paid,
		Plan:     user.Plan,
		Progress: user.Progress,
	}
	if course.Progress == nil {
		course.Progress = []string{}
	}
	if user.Paid && user.Plan != nil {
		url, ok := s.videos[*user.Plan]
		if !ok {
			s.log.Warn("no video configured for plan", sl.Op(op), slog.String("plan", user.Plan.String()))
		}
		course.VideoURL = url
	}
	return course, nil
}

// Profile возвращает профиль пользователя.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	const op = "services.account.Profile"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Profile{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
		Phone:    user.Phone,
		Paid:     user.Paid,
		Plan:     user.Plan,
	}, nil
}

// UpdateProfile сохраняет имя и телефон пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, phone string) error {
	const op = "services.account.UpdateProfile"

	phone = strings.TrimSpace(phone)
	if !ValidPhone(phone) {
		return fmt.Errorf("%s: %w", op, ErrInvalidPhone)
	}
	if err := s.repo.UpdateProfile(ctx, userID, strings.TrimSpace(name), phone); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddProgress отмечает урок пройденным.
func (s *Service) AddProgress(ctx context.Context, userID int64, lesson string) ([]string, error) {
	const op = "services.account.AddProgress"

	lesson = strings.TrimSpace(lesson)
	if lesson == "" || len(lesson) > maxLessonLen {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyLesson)
	}
	progress, err := s.repo.AddProgress(ctx, userID, lesson)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return progress, nil
}

// ValidPhone сообщает, состоит ли phone только из 10-15 цифр.
func ValidPhone(phone string) bool {
	if len(phone) < minPhoneDigits || len(phone) > maxPhoneDigits {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
