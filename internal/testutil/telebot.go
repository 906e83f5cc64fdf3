package testutil

import (
	"sync"

	telebot "gopkg.in/telebot.v3"
)

// Context is a telebot.Context double that records outgoing messages.
// Methods it does not override panic through the nil embedded interface.
type Context struct {
	telebot.Context

	UpdateID int
	User     *telebot.User
	Msg      *telebot.Message
	Cb       *telebot.Callback

	SendErr error
	EditErr error

	mu        sync.Mutex
	Sent      []string
	Edited    []string
	Markups   []*telebot.ReplyMarkup
	Responses []*telebot.CallbackResponse
	store     map[string]interface{}
}

// NewMessageContext returns a context for a text message from userID.
func NewMessageContext(userID int64, text string) *Context {
	user := &telebot.User{ID: userID, FirstName: "Ada"}
	return &Context{
		UpdateID: 1,
		User:     user,
		Msg: &telebot.Message{
			ID:     10,
			Text:   text,
			Sender: user,
			Chat:   &telebot.Chat{ID: userID},
		},
	}
}

// NewCallbackContext returns a context for an inline button press from userID.
func NewCallbackContext(userID int64, data string) *Context {
	user := &telebot.User{ID: userID, FirstName: "Ada"}
	return &Context{
		UpdateID: 2,
		User:     user,
		Cb: &telebot.Callback{
			ID:     "cb-1",
			Data:   data,
			Sender: user,
			Message: &telebot.Message{
				ID:   20,
				Chat: &telebot.Chat{ID: userID},
			},
		},
	}
}

func (c *Context) Update() telebot.Update {
	return telebot.Update{ID: c.UpdateID, Message: c.Msg, Callback: c.Cb}
}

func (c *Context) Sender() *telebot.User { return c.User }

func (c *Context) Message() *telebot.Message {
	if c.Msg != nil {
		return c.Msg
	}
	if c.Cb != nil {
		return c.Cb.Message
	}
	return nil
}

func (c *Context) Callback() *telebot.Callback { return c.Cb }

func (c *Context) Chat() *telebot.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Text() string {
	if c.Msg != nil {
		return c.Msg.Text
	}
	return ""
}

func (c *Context) Data() string {
	if c.Cb != nil {
		return c.Cb.Data
	}
	return ""
}

func (c *Context) Send(what interface{}, opts ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if text, ok := what.(string); ok {
		c.Sent = append(c.Sent, text)
	}
	c.recordMarkup(opts)
	return c.SendErr
}

func (c *Context) Edit(what interface{}, opts ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if text, ok := what.(string); ok {
		c.Edited = append(c.Edited, text)
	}
	c.recordMarkup(opts)
	return c.EditErr
}

func (c *Context) Respond(resp ...*telebot.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(resp) == 0 {
		c.Responses = append(c.Responses, &telebot.CallbackResponse{})
		return nil
	}
	c.Responses = append(c.Responses, resp...)
	return nil
}

func (c *Context) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]interface{})
	}
	c.store[key] = val
}

// LastSent returns the last sent text, or an empty string.
func (c *Context) LastSent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Sent) == 0 {
		return ""
	}
	return c.Sent[len(c.Sent)-1]
}

// LastEdited returns the last edited text, or an empty string.
func (c *Context) LastEdited() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Edited) == 0 {
		return ""
	}
	return c.Edited[len(c.Edited)-1]
}

func (c *Context) recordMarkup(opts []interface{}) {
	for _, opt := range opts {
		if markup, ok := opt.(*telebot.ReplyMarkup); ok {
			c.Markups = append(c.Markups, markup)
		}
	}
}
