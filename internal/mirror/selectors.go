package mirror

import "github.com/cristianoliveira/messenger-mirror/internal/session"

// emptyListPlaceholder is the text Messenger shows instead of a thread list
// when the inbox has no conversations.
const emptyListPlaceholder = "No messages found."

var (
	selEmail       = session.ByID("email")
	selPassword    = session.ByID("pass")
	selRememberMe  = session.ByName("persistent")
	selLoginButton = session.ByID("loginbutton")

	selChats          = session.ByCSS("[aria-label='Chats']")
	selEmptyListSpans = session.ByCSS("div[id] div[data-testid='MWJewelThreadListContainer'] span[dir='auto']")

	selMarkAsRead  = session.ByCSS("[aria-label='Mark as Read']")
	selThreadItem  = session.ByXPath("ancestor::*[@data-testid='mwthreadlist-item']")
	selSpan        = session.ByTag("span")
	selAvatarImage = session.ByCSS("svg image")
	selAnchor      = session.ByTag("a")
)
