package service

import "sync"

// NotificationService одноразовые уведомления сессии
type NotificationService struct {
	mu    sync.Mutex
	notes map[string]string
}

func NewNotificationService() *NotificationService {
	return &NotificationService{notes: make(map[string]string)}
}

// Set replaces any pending message for the session.
func (s *NotificationService) Set(session, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[session] = msg
}

// Take returns the pending message and clears it.
func (s *NotificationService) Take(session string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.notes[session]
	delete(s.notes, session)
	return msg, ok
}
