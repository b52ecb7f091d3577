package surface

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/zhouzirui/datachat/internal/model/chat"
	"github.com/zhouzirui/datachat/internal/service/analysis"
	"github.com/zhouzirui/datachat/internal/service/session"
	"github.com/zhouzirui/datachat/internal/view"
)

var (
	// ErrUnsupportedFile 上传的文件不是 .csv
	ErrUnsupportedFile = errors.New("only .csv files can be uploaded")
	// ErrEmptyMessage 聊天内容为空
	ErrEmptyMessage = errors.New("message is required")
	// ErrChatDisabled 尚未加载数据集时禁止聊天
	ErrChatDisabled = errors.New("upload a CSV file before chatting")
)

// Service 把界面事件转发到对应的分析会话，并在状态变化后通知订阅者。
type Service struct {
	store *session.Store
}

// NewService 创建界面服务
func NewService(store *session.Store) *Service {
	return &Service{store: store}
}

// Upload loads a picked file into the session. A file that fails to parse is
// not an error here: the returned view shows the failure.
func (s *Service) Upload(ctx context.Context, sessionID, filename string, data []byte) (view.View, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return view.View{}, ErrUnsupportedFile
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return view.View{}, err
	}

	if _, err := sess.Load(data, filepath.Base(filename)); err != nil {
		var parseErr *analysis.ParseError
		if !errors.As(err, &parseErr) {
			return view.View{}, err
		}
	}
	s.store.Notify(sessionID)

	return view.Build(sessionID, sess), nil
}

// Chat submits a message. The view is returned even when the completion
// fails so callers can still show the recorded question.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (view.View, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return view.View{}, ErrEmptyMessage
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return view.View{}, err
	}
	if sess.Dataset() == nil {
		return view.Build(sessionID, sess), ErrChatDisabled
	}

	_, err = sess.Respond(ctx, message)
	s.store.Notify(sessionID)

	v := view.Build(sessionID, sess)
	if err != nil {
		log.Printf("[surface] chat failed session=%s: %v", sessionID, err)
		return v, fmt.Errorf("chat: %w", err)
	}
	return v, nil
}

// Snapshot renders the current state without changing it.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (view.View, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return view.View{}, err
	}
	return view.Build(sessionID, sess), nil
}

// History returns the visible dialogue of a session.
func (s *Service) History(ctx context.Context, sessionID string) ([]chat.Entry, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}

// Prompt previews what the next message would send to the model.
func (s *Service) Prompt(ctx context.Context, sessionID, message string) (string, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return sess.Prompt(message), nil
}

// Watch subscribes to changes of a session.
func (s *Service) Watch(sessionID string) (<-chan struct{}, func(), error) {
	return s.store.Subscribe(sessionID)
}
