package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yourusername/poizon-order-bot/internal/domain/entity"
	"github.com/yourusername/poizon-order-bot/internal/domain/repository"
	"github.com/yourusername/poizon-order-bot/internal/metric"
)

const minAddressLength = 5

// RegistrationReply result of one registration step.
type RegistrationReply struct {
	Stage       RegistrationStage
	Problem     Problem
	User        *entity.User
	Created     bool
	Updated     bool
	ResumeOrder bool
}

// RegistrationFlow FIO -> telefon -> manzil
type RegistrationFlow struct {
	convs *ConversationStore
	users repository.UserRepository
}

func NewRegistrationFlow(convs *ConversationStore, users repository.UserRepository) *RegistrationFlow {
	return &RegistrationFlow{convs: convs, users: users}
}

// Start asks for the full name. Existing users go through the same steps and
// keep their code. resumeOrder marks a redirect from the order flow.
func (f *RegistrationFlow) Start(ctx context.Context, userID int64, username string, resumeOrder bool) (RegistrationReply, error) {
	existing := false
	if _, err := f.users.GetUserByTelegramID(ctx, userID); err == nil {
		existing = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		return RegistrationReply{}, fmt.Errorf("registration start: %w", err)
	}
	err := f.convs.With(userID, func(c *Conversation) error {
		*c = Conversation{UserID: userID, Active: FlowRegistration}
		c.Registration = RegistrationState{
			Stage:       RegistrationEnteringName,
			Username:    strings.TrimPrefix(strings.TrimSpace(username), "@"),
			Existing:    existing,
			ResumeOrder: resumeOrder,
		}
		return nil
	})
	if err != nil {
		return RegistrationReply{}, err
	}
	return RegistrationReply{Stage: RegistrationEnteringName, ResumeOrder: resumeOrder}, nil
}

func (f *RegistrationFlow) Stage(userID int64) RegistrationStage {
	c, _ := f.convs.Snapshot(userID)
	if c.Active != FlowRegistration {
		return RegistrationIdle
	}
	return c.Registration.Stage
}

// Text handles the answer for the current step.
func (f *RegistrationFlow) Text(ctx context.Context, userID int64, text string) (RegistrationReply, error) {
	var reply RegistrationReply
	err := f.convs.With(userID, func(c *Conversation) error {
		if c.Active != FlowRegistration {
			reply.Problem = ProblemUnexpected
			return nil
		}
		st := &c.Registration
		reply.ResumeOrder = st.ResumeOrder
		switch st.Stage {
		case RegistrationEnteringName:
			name := strings.Join(strings.Fields(text), " ")
			if !ValidateFullName(name) {
				reply.Problem = ProblemInvalidName
				break
			}
			st.FullName = name
			st.Stage = RegistrationEnteringPhone
		case RegistrationEnteringPhone:
			phone := NormalizePhone(text)
			if !ValidatePhone(phone) {
				reply.Problem = ProblemInvalidPhone
				break
			}
			st.Phone = phone
			st.Stage = RegistrationEnteringAddress
		case RegistrationEnteringAddress:
			address := strings.TrimSpace(text)
			if utf8.RuneCountInString(address) < minAddressLength {
				reply.Problem = ProblemInvalidAddress
				break
			}
			if err := f.save(ctx, c, address, &reply); err != nil {
				return err
			}
		default:
			reply.Problem = ProblemUnexpected
		}
		reply.Stage = st.Stage
		return nil
	})
	return reply, err
}

func (f *RegistrationFlow) save(ctx context.Context, c *Conversation, address string, reply *RegistrationReply) error {
	st := &c.Registration
	user := entity.User{
		TelegramID: c.UserID,
		FullName:   st.FullName,
		Phone:      st.Phone,
		Address:    address,
	}
	if st.Username != "" {
		user.TelegramLink = "@" + st.Username
	}

	var err error
	if st.Existing {
		err = f.users.UpdateUserProfile(ctx, user)
		if errors.Is(err, repository.ErrNotFound) {
			st.Existing = false
		}
	}
	if !st.Existing {
		err = f.users.CreateUser(ctx, &user)
		if errors.Is(err, repository.ErrDuplicate) {
			// registered from another update meanwhile
			if _, lookupErr := f.users.GetUserByTelegramID(ctx, c.UserID); lookupErr == nil {
				st.Existing = true
				err = f.users.UpdateUserProfile(ctx, user)
			}
		}
	}
	if errors.Is(err, repository.ErrDuplicate) {
		reply.Problem = ProblemPhoneTaken
		st.Stage = RegistrationEnteringPhone
		return nil
	}
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	saved, err := f.users.GetUserByTelegramID(ctx, c.UserID)
	if err != nil {
		return fmt.Errorf("reload user: %w", err)
	}
	reply.User = saved
	if st.Existing {
		reply.Updated = true
		metric.RegistrationsTotal.WithLabelValues("updated").Inc()
	} else {
		reply.Created = true
		metric.RegistrationsTotal.WithLabelValues("created").Inc()
	}
	*c = Conversation{UserID: c.UserID}
	return nil
}

// Cancel stops registration without saving.
func (f *RegistrationFlow) Cancel(userID int64) {
	_ = f.convs.With(userID, func(c *Conversation) error {
		if c.Active == FlowRegistration {
			c.Active = FlowNone
			c.Registration = RegistrationState{}
		}
		return nil
	})
}
