package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// CommandSender runs a platform notification command
type CommandSender struct {
	build func(title, message string) *exec.Cmd
}

func (c *CommandSender) Send(title, message string) error {
	return c.build(title, message).Run()
}

// PlatformSender returns the sender for the current OS, or nil when the
// platform has none
func PlatformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &CommandSender{build: func(title, message string) *exec.Cmd {
			return exec.Command("notify-send", title, message)
		}}
	case "darwin":
		return &CommandSender{build: func(title, message string) *exec.Cmd {
			script := fmt.Sprintf("display notification %q with title %q", message, title)
			return exec.Command("osascript", "-e", script)
		}}
	default:
		return nil
	}
}

// Notifier echoes notifications to the terminal and, when enabled, to the
// desktop
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a Notifier. desktop=false keeps it terminal only.
func NewNotifier(desktop bool) *Notifier {
	if !desktop {
		return &Notifier{}
	}
	return &Notifier{sender: PlatformSender()}
}

// NewNotifierWithSender creates a Notifier with an explicit sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) SendSuccess(title, message string) {
	PrintSuccess(fmt.Sprintf("%s: %s", title, message))
	n.send(title, message)
}

func (n *Notifier) SendError(title, message string) {
	PrintError(title, message)
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// notifications are best effort
		_ = n.sender.Send(title, message)
	}
}
