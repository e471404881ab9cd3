// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"fmt"
	"slices"
)

// Secrets holds the bot token and the telegram usernames allowed to talk to
// the bot. Owner is mandatory and always receives notifications; admin and
// others are optional extra users.
type Secrets struct {
	BotToken string `json:"token"`

	OwnerID string `json:"owner"`

	AdminID string `json:"admin"`

	OtherIDs []string `json:"others"`
}

func (v *Secrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if len(v.OwnerID) == 0 {
		return fmt.Errorf("owner id cannot be empty")
	}
	if slices.Contains(v.OtherIDs, "") {
		return fmt.Errorf("empty string in other ids is not a valid id")
	}
	for _, id := range []string{v.OwnerID, v.AdminID} {
		if len(id) != 0 && slices.Contains(v.OtherIDs, id) {
			return fmt.Errorf("id %q should not be repeated in other ids", id)
		}
	}
	return nil
}

func (v *Secrets) Clone() *Secrets {
	return &Secrets{
		BotToken: v.BotToken,
		OwnerID:  v.OwnerID,
		AdminID:  v.AdminID,
		OtherIDs: slices.Clone(v.OtherIDs),
	}
}
