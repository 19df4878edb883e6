package session

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"github.com/retroline/retroline/internal/auth"
	"github.com/retroline/retroline/internal/door"
	"github.com/retroline/retroline/internal/models"
	"github.com/retroline/retroline/internal/terminal"
	"github.com/retroline/retroline/pkg/crypto"
	"github.com/retroline/retroline/pkg/errors"
	"github.com/retroline/retroline/pkg/validator"
)

// loginFlow walks the handle/password dialogue until a caller authenticates,
// registers, or locks themselves out. A wrong password returns to the handle
// prompt, the way boards always did it.
func (s *Session) loginFlow(ctx context.Context) (*models.User, error) {
	for {
		handle, err := s.promptLine(ctx, "Enter your handle: ", door.LineOptions{Echo: true, MaxLen: 20})
		if err != nil {
			return nil, err
		}
		handle = strings.TrimSpace(handle)
		if handle == "" {
			if err := s.writeError(ctx, "Handle cannot be empty."); err != nil {
				return nil, err
			}
			continue
		}

		if strings.EqualFold(handle, "new") {
			user, err := s.registrationFlow(ctx)
			if err != nil {
				return nil, err
			}
			if user != nil {
				return user, nil
			}
			continue
		}

		locked, err := s.deps.Attempts.IsLockedOut(ctx, handle)
		if err != nil {
			s.log.Error("lockout check failed", zap.Error(err))
			locked = false
		}
		if locked {
			if err := s.writeError(ctx, "Account locked due to too many failed attempts.\r\nPlease try again later."); err != nil {
				return nil, err
			}
			return nil, errors.ErrAccountLocked
		}

		user, err := s.deps.Users.FindByHandle(ctx, handle)
		if err != nil {
			if stderrors.Is(err, errors.ErrNotFound) {
				// unknown handles count toward the lockout window too
				_ = s.deps.Attempts.Record(ctx, handle, false)
				if err := s.writeError(ctx, "Handle not found. Type NEW to register."); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		password, err := s.promptLine(ctx, "Password: ", door.LineOptions{Mask: true, MaxLen: 128})
		if err != nil {
			return nil, err
		}

		if !crypto.VerifyPassword(user.PasswordHash, password) {
			_ = s.deps.Attempts.Record(ctx, handle, false)
			if err := s.writeError(ctx, "Wrong password."); err != nil {
				return nil, err
			}
			continue
		}

		if err := s.deps.Attempts.Record(ctx, handle, true); err != nil {
			s.log.Error("record login attempt failed", zap.Error(err))
		}
		return user, nil
	}
}

const registrationTries = 3

// registrationFlow signs up a new caller. A nil user with nil error means
// the caller gave up; the login prompt comes back.
func (s *Session) registrationFlow(ctx context.Context) (*models.User, error) {
	w := terminal.NewWriter()
	w.WriteLine("")
	w.SetFg(terminal.LightCyan)
	w.Bold()
	w.WriteLine("-=[ New User Registration ]=-")
	w.Reset()
	w.SetFg(terminal.LightGray)
	w.WriteLine("Handles are 2-20 characters, letters first.")
	w.Reset()
	w.WriteLine("")
	if err := s.write(ctx, w.Flush()); err != nil {
		return nil, err
	}

	var handle string
	for try := 0; ; try++ {
		if try == registrationTries {
			return nil, s.writeError(ctx, "Too many tries. Returning to login.")
		}
		line, err := s.promptLine(ctx, "Pick a handle: ", door.LineOptions{Echo: true, MaxLen: 20})
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if !validator.ValidHandle(line) {
			if err := s.writeError(ctx, "That handle won't work. Letters and digits only, starting with a letter."); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := s.deps.Users.FindByHandle(ctx, line); err == nil {
			if err := s.writeError(ctx, "That handle is taken."); err != nil {
				return nil, err
			}
			continue
		} else if !stderrors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		handle = line
		break
	}

	email, err := s.promptLine(ctx, "Email (optional): ", door.LineOptions{Echo: true, MaxLen: 80})
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)

	var password string
	for try := 0; ; try++ {
		if try == registrationTries {
			return nil, s.writeError(ctx, "Too many tries. Returning to login.")
		}
		first, err := s.promptLine(ctx, "Choose a password: ", door.LineOptions{Mask: true, MaxLen: 128})
		if err != nil {
			return nil, err
		}
		if len(first) < 6 {
			if err := s.writeError(ctx, "Passwords need at least 6 characters."); err != nil {
				return nil, err
			}
			continue
		}
		second, err := s.promptLine(ctx, "Again to confirm: ", door.LineOptions{Mask: true, MaxLen: 128})
		if err != nil {
			return nil, err
		}
		if first != second {
			if err := s.writeError(ctx, "Passwords did not match."); err != nil {
				return nil, err
			}
			continue
		}
		password = first
		break
	}

	user, err := s.deps.Users.Create(ctx, auth.CreateInput{
		Handle:       handle,
		Email:        email,
		Password:     password,
		DailyMinutes: s.cfg.DailyMinutes,
	})
	if err != nil {
		s.log.Error("registration failed", zap.String("handle", handle), zap.Error(err))
		if werr := s.writeError(ctx, "Registration failed. Returning to login."); werr != nil {
			return nil, werr
		}
		return nil, nil
	}

	done := terminal.NewWriter()
	done.WriteLine("")
	done.SetFg(terminal.LightGreen)
	done.Bold()
	done.WriteLine("Registration complete! Logging you in...")
	done.Reset()
	if err := s.write(ctx, done.Flush()); err != nil {
		return nil, err
	}

	_ = s.deps.Attempts.Record(ctx, handle, true)
	s.log.Info("new user registered", zap.String("handle", handle))
	return user, nil
}

func (s *Session) promptLine(ctx context.Context, prompt string, opts door.LineOptions) (string, error) {
	w := terminal.NewWriter()
	w.SetFg(terminal.LightCyan)
	w.WriteString(prompt)
	w.Reset()
	if err := s.write(ctx, w.Flush()); err != nil {
		return "", err
	}
	return s.io.ReadLine(ctx, opts)
}

func (s *Session) writeError(ctx context.Context, msg string) error {
	w := terminal.NewWriter()
	w.SetFg(terminal.LightRed)
	for _, line := range strings.Split(msg, "\r\n") {
		w.WriteLine(line)
	}
	w.Reset()
	return s.write(ctx, w.Flush())
}
