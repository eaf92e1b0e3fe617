package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth_Register_InvalidEmail(t *testing.T) {
	uc := usecase.NewAuthUsecase(new(UserRepoMock), "secret")

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email: "not-an-email", Password: "password123", FullName: "Ana",
	})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid email")
}

func TestAuth_Register_PasswordTooShort(t *testing.T) {
	uc := usecase.NewAuthUsecase(new(UserRepoMock), "secret")

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email: "ana@example.com", Password: "short", FullName: "Ana",
	})
	assertHTTPError(t, err, http.StatusBadRequest, "password too short")
}

func TestAuth_Register_DuplicateEmail(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret")

	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(&model.User{ID: 1}, nil)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email: "ana@example.com", Password: "password123", FullName: "Ana",
	})
	assertHTTPError(t, err, http.StatusConflict, "email already used")

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuth_Register_Success_HashesPassword(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret")

	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		//平文は保存しない
		return u.Email == "ana@example.com" &&
			u.PasswordHash != "password123" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	})).Return(nil)

	out, err := uc.Register(context.Background(), usecase.RegisterInput{
		Email: "ana@example.com", Password: "password123", FullName: " Ana ",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Ana", out.FullName)

	users.AssertExpectations(t)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret")

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(&model.User{
		ID: 1, Email: "ana@example.com", PasswordHash: string(hash),
	}, nil)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email: "ana@example.com", Password: "wrong-password",
	})
	assertHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestAuth_Login_UnknownEmail(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret")

	users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	_, err := uc.Login(context.Background(), usecase.LoginInput{
		Email: "ghost@example.com", Password: "password123",
	})
	assertHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestAuth_Login_Success_IssuesToken(t *testing.T) {
	users := new(UserRepoMock)
	uc := usecase.NewAuthUsecase(users, "secret")

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(&model.User{
		ID: 7, Email: "ana@example.com", PasswordHash: string(hash), FullName: "Ana",
	}, nil)

	out, err := uc.Login(context.Background(), usecase.LoginInput{
		Email: "ana@example.com", Password: "password123",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(7), out.User.ID)

	//発行したトークンが同じシークレットで検証できること
	tok, err := jwt.Parse(out.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	assert.NoError(t, err)

	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(7), claims["sub"])
}
