package auth

import (
	"context"
	"errors"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/usecase"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/validator"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// signup / signin 共通の出力
type AuthOutput struct {
	User      UserDTO `json:"user"`
	Token     string  `json:"token"`
	ExpiresIn int     `json:"expires_in"`
}

var (
	ErrUserNotFound    = usecase.NewError(usecase.KindNotFound, "user not found")
	ErrInvalidPassword = usecase.NewError(usecase.KindUnauthorized, "invalid password")
)

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID, email string, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    usecase.Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock usecase.Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (AuthOutput, error) {
	if err := validator.ValidateLogin(in.Email, in.Password); err != nil {
		return AuthOutput{}, err
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, validator.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthOutput{}, ErrUserNotFound
		}
		return AuthOutput{}, usecase.Internal("find user by email", err)
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return AuthOutput{}, ErrInvalidPassword
	}

	return issue(u.issuer, user, u.clock.Now())
}

func issue(issuer AccessTokenIssuer, user *model.User, now time.Time) (AuthOutput, error) {
	tok, exp, err := issuer.Issue(user.ID, user.Email, now)
	if err != nil {
		return AuthOutput{}, usecase.Internal("issue token", err)
	}

	//出力（passwordは返さない）
	return AuthOutput{
		User: UserDTO{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
		Token:     tok,
		ExpiresIn: int(exp.Sub(now).Seconds()),
	}, nil
}
