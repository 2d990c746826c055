package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conversation states. Multi-turn flows (referral entry, bankroll and
// stake-rule creation) are explicit state machines keyed by recipient,
// persisted in Redis so a restart does not strand anyone mid-flow.
const (
	stateReferralCode   = "referral_code"
	stateBankrollName   = "bankroll_name"
	stateBankrollAmount = "bankroll_amount"
	stateStakeInterval  = "stake_interval"
	stateStakePct       = "stake_pct"
	stateStakeSport     = "stake_sport"
	stateStakeStrats    = "stake_strategies"
	stateBroadcastBody  = "broadcast_body"
)

const conversationTTL = 15 * time.Minute

// ConvState is one step of a multi-turn flow; Data accumulates the
// answers collected so far.
type ConvState struct {
	Name string            `json:"name"`
	Data map[string]string `json:"data,omitempty"`
}

func (s *ConvState) put(key, value string) {
	if s.Data == nil {
		s.Data = map[string]string{}
	}
	s.Data[key] = value
}

type Conversations struct {
	rdb *redis.Client
}

func NewConversations(rdb *redis.Client) *Conversations {
	return &Conversations{rdb: rdb}
}

func convKey(userID int64) string { return fmt.Sprintf("conv:%d", userID) }

func (c *Conversations) Get(ctx context.Context, userID int64) (*ConvState, bool) {
	raw, err := c.rdb.Get(ctx, convKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	var state ConvState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false
	}
	return &state, true
}

func (c *Conversations) Set(ctx context.Context, userID int64, state *ConvState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, convKey(userID), raw, conversationTTL).Err()
}

func (c *Conversations) Clear(ctx context.Context, userID int64) {
	c.rdb.Del(ctx, convKey(userID))
}
