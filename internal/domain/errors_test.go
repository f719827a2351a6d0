package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Сообщения not-found ошибок — часть наблюдаемого контракта,
// их тексты должны оставаться стабильными.
func TestNotFoundMessagesAreStable(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.ErrCartNotFound, "cart not found"},
		{domain.ErrUserHasNoCart, "this user has no cart"},
		{domain.ErrProductNotFound, "product not found"},
		{domain.ErrProductNotInCart, "product not found in cart"},
		{domain.ErrOrderNotFound, "order not found"},
		{domain.ErrUserHasNoOrders, "this user has no orders"},
	}

	for _, tc := range cases {
		if tc.err.Error() != tc.want {
			t.Fatalf("expected message %q, got %q", tc.want, tc.err.Error())
		}
	}
}

func TestIsNotFound(t *testing.T) {
	notFound := []error{
		domain.ErrCartNotFound,
		domain.ErrUserHasNoCart,
		domain.ErrProductNotFound,
		domain.ErrProductNotInCart,
		domain.ErrOrderNotFound,
		domain.ErrUserHasNoOrders,
	}
	for _, err := range notFound {
		if !domain.IsNotFound(err) {
			t.Fatalf("expected IsNotFound(%v) to be true", err)
		}
		// Обёртки через %w также распознаются.
		if !domain.IsNotFound(fmt.Errorf("get cart: %w", err)) {
			t.Fatalf("expected wrapped IsNotFound(%v) to be true", err)
		}
	}

	other := []error{
		nil,
		errors.New("boom"),
		domain.ErrCartVersionConflict,
		domain.ErrQuantityInvalid,
	}
	for _, err := range other {
		if domain.IsNotFound(err) {
			t.Fatalf("expected IsNotFound(%v) to be false", err)
		}
	}
}

func TestIsVersionConflict(t *testing.T) {
	if !domain.IsVersionConflict(domain.ErrCartVersionConflict) {
		t.Fatal("expected version conflict to be detected")
	}
	if !domain.IsVersionConflict(fmt.Errorf("save cart: %w", domain.ErrCartVersionConflict)) {
		t.Fatal("expected wrapped version conflict to be detected")
	}
	if domain.IsVersionConflict(domain.ErrCartNotFound) {
		t.Fatal("not-found must not be a version conflict")
	}
}

func TestIdempotencyStatusValid(t *testing.T) {
	valid := []domain.IdempotencyStatus{
		domain.IdempotencyStatusProcessing,
		domain.IdempotencyStatusDone,
		domain.IdempotencyStatusFailed,
	}
	for _, status := range valid {
		if !status.Valid() {
			t.Fatalf("expected status %q to be valid", status)
		}
	}
	if domain.IdempotencyStatus("unknown").Valid() {
		t.Fatal("unknown status must be invalid")
	}
}
