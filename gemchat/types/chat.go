// gemchat/types/chat.go
package types

type SendRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type SendResult struct {
	Response string `json:"response"`
	Title    string `json:"title"`
}

type RenameRequest struct {
	Title string `json:"title"`
}
