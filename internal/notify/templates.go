package notify

import (
	"fmt"
	"html"
	"strings"
)

// Links builds absolute URLs for mail bodies from the configured base URL.
type Links struct {
	BaseURL string
}

func (l Links) AcceptInvitation(boardID, token string) string {
	return fmt.Sprintf("%s/trello-board/accept-invitation/%s/%s", l.BaseURL, boardID, token)
}

func (l Links) ResetPassword(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", l.BaseURL, token)
}

func (l Links) Project(projectID string) string {
	return fmt.Sprintf("%s/projects/%s", l.BaseURL, projectID)
}

func paragraph(lines ...string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString("<p>")
		b.WriteString(line)
		b.WriteString("</p>")
	}
	return b.String()
}

func link(href, label string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(label))
}

func BoardInvitation(to, userName, boardName, acceptURL string) Message {
	return Message{
		To:      to,
		Subject: "Invitation to join board " + boardName,
		Body: paragraph(
			"Hello "+html.EscapeString(userName)+",",
			"You have been invited to join the board <b>"+html.EscapeString(boardName)+"</b>.",
			link(acceptURL, "Accept invitation"),
			"This link expires in 24 hours.",
		),
	}
}

func AddedToProject(to, userName, projectName, track, projectURL string) Message {
	return Message{
		To:      to,
		Subject: "You were added to project " + projectName,
		Body: paragraph(
			"Hello "+html.EscapeString(userName)+",",
			"You were added to <b>"+html.EscapeString(projectName)+"</b> as a "+html.EscapeString(track)+" developer.",
			link(projectURL, "Open project"),
		),
	}
}

func RemovedFromProject(to, userName, projectName, track string) Message {
	return Message{
		To:      to,
		Subject: "You were removed from project " + projectName,
		Body: paragraph(
			"Hello "+html.EscapeString(userName)+",",
			"You are no longer a "+html.EscapeString(track)+" developer on <b>"+html.EscapeString(projectName)+"</b>.",
		),
	}
}

func CardAssigned(to, userName, cardName string, cardNumber int, boardName string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Card #%d assigned to you", cardNumber),
		Body: paragraph(
			"Hello "+html.EscapeString(userName)+",",
			fmt.Sprintf("You were assigned to card #%d <b>%s</b> on board %s.", cardNumber, html.EscapeString(cardName), html.EscapeString(boardName)),
		),
	}
}

func CardStatusChanged(to, userName, cardName string, cardNumber int, from, status string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Card #%d moved to %s", cardNumber, status),
		Body: paragraph(
			"Hello "+html.EscapeString(userName)+",",
			fmt.Sprintf("Card #%d <b>%s</b> changed status from %s to %s.", cardNumber, html.EscapeString(cardName), html.EscapeString(from), html.EscapeString(status)),
		),
	}
}

func LeaveRequested(to, requesterName, requesterRole, leaveType string, days int, reason string) Message {
	return Message{
		To:      to,
		Subject: "New leave request from " + requesterName,
		Body: paragraph(
			fmt.Sprintf("%s (%s) requested %d day(s) of %s leave.", html.EscapeString(requesterName), html.EscapeString(requesterRole), days, html.EscapeString(leaveType)),
			"Reason: "+html.EscapeString(reason),
		),
	}
}

func LeaveDecided(to, userName, status string, days int, deciderName string) Message {
	return Message{
		To:      to,
		Subject: "Your leave request was " + status,
		Body: paragraph(
			"Hello "+html.EscapeString(userName)+",",
			fmt.Sprintf("Your request for %d day(s) was %s by %s.", days, html.EscapeString(status), html.EscapeString(deciderName)),
		),
	}
}

func PasswordReset(to, userName, resetURL string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		Body: paragraph(
			"Hello "+html.EscapeString(userName)+",",
			link(resetURL, "Choose a new password"),
			"If you did not ask for this, ignore this message. The link expires in 24 hours.",
		),
	}
}
