package state

import (
	"context"

	"github.com/dmitrijs2005/tradehub/internal/client/adapter"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
)

type UserAPI interface {
	GetUser(ctx context.Context, userID string) (*models.User, adapter.Result)
	SaveUser(ctx context.Context, userID string, patch models.UserPatch) (*models.User, adapter.Result)
}

// User caches the profile of the signed-in user. The value is nil until the
// first successful load or save.
type User struct {
	*Container[*models.User]
	api    UserAPI
	logger logging.Logger
}

func NewUser(api UserAPI, l logging.Logger) *User {
	return &User{
		Container: NewContainer[*models.User](nil, cloneUser),
		api:       api,
		logger:    l.With("module", "user_state"),
	}
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// normalizeUser keeps timestamps in UTC whatever the server sent.
func normalizeUser(u models.User) models.User {
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u
}

func (u *User) Load(ctx context.Context, userID string) (State[*models.User], adapter.Result) {
	if _, err := u.Apply(context.WithoutCancel(ctx), fetchStarted[*models.User]); err != nil {
		return State[*models.User]{}, adapter.Result{Status: adapter.Transient, Err: err}
	}

	got, res := u.api.GetUser(ctx, userID)

	s, err := u.Apply(context.WithoutCancel(ctx), func(s State[*models.User]) State[*models.User] {
		s.Loading = false
		if !res.OK() {
			s.Err = res.Message()
			return s
		}
		n := normalizeUser(*got)
		s.Value = &n
		s.Err = ""
		return s
	})
	if err != nil {
		return State[*models.User]{}, adapter.Result{Status: adapter.Transient, Err: err}
	}
	return s, res
}

// Save merges patch remotely and caches the stored user. When the server
// returns no document the patch is merged over the cached user instead.
func (u *User) Save(ctx context.Context, userID string, patch models.UserPatch) (State[*models.User], adapter.Result) {
	saved, res := u.api.SaveUser(ctx, userID, patch)

	s, err := u.Apply(context.WithoutCancel(ctx), func(s State[*models.User]) State[*models.User] {
		if !res.OK() {
			s.Err = res.Message()
			return s
		}
		var next models.User
		switch {
		case saved != nil:
			next = *saved
		case s.Value != nil && s.Value.ID == userID:
			next = patch.Apply(*s.Value)
		default:
			next = patch.Apply(models.User{ID: userID})
		}
		next = normalizeUser(next)
		s.Value = &next
		s.Err = ""
		return s
	})
	if err != nil {
		return State[*models.User]{}, adapter.Result{Status: adapter.Transient, Err: err}
	}
	return s, res
}

// Reset forgets the cached user.
func (u *User) Reset(ctx context.Context) {
	if _, err := u.Apply(context.WithoutCancel(ctx), func(State[*models.User]) State[*models.User] {
		return State[*models.User]{}
	}); err != nil {
		u.logger.Warn(ctx, "user state not reset", "error", err)
	}
}
