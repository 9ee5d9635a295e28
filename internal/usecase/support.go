package usecase

import "strings"

// SupportFlow "Помощь": bitta savol qabul qilib managerga uzatadi
type SupportFlow struct {
	convs *ConversationStore
}

func NewSupportFlow(convs *ConversationStore) *SupportFlow {
	return &SupportFlow{convs: convs}
}

func (s *SupportFlow) Start(userID int64) {
	_ = s.convs.With(userID, func(c *Conversation) error {
		*c = Conversation{UserID: userID, Active: FlowSupport}
		c.Support.AwaitingQuestion = true
		return nil
	})
}

func (s *SupportFlow) Awaiting(userID int64) bool {
	c, _ := s.convs.Snapshot(userID)
	return c.Active == FlowSupport && c.Support.AwaitingQuestion
}

// Question consumes the question text. ProblemUnexpected when no question was expected.
func (s *SupportFlow) Question(userID int64, text string) (question string, problem Problem) {
	problem = ProblemUnexpected
	_ = s.convs.With(userID, func(c *Conversation) error {
		if c.Active != FlowSupport || !c.Support.AwaitingQuestion {
			return nil
		}
		question = strings.TrimSpace(text)
		if question == "" {
			problem = ProblemEmptyText
			return nil
		}
		problem = ProblemNone
		c.Support = SupportState{}
		c.Active = FlowNone
		return nil
	})
	return question, problem
}
