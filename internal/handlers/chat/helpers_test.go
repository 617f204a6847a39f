package chat

import (
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
)

var (
	testChat = api.Chat{ID: -1001, Type: "supergroup", Title: "Rotten Gram"}
	testUser = api.User{ID: 42, FirstName: "Mario", UserName: "mario"}
	t0       = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func clock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func mediaUpdate(id int, chat api.Chat, user api.User) *api.Update {
	return &api.Update{Message: &api.Message{
		MessageID: id,
		Chat:      chat,
		From:      &user,
		Photo:     []api.PhotoSize{{FileID: "p"}},
	}}
}

func textUpdate(id int, chat api.Chat, user api.User, text string) *api.Update {
	return &api.Update{Message: &api.Message{
		MessageID: id,
		Chat:      chat,
		From:      &user,
		Text:      text,
	}}
}
