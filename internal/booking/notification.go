package booking

import (
	"fmt"
	"time"

	"github.com/clinibook/clinic-booking/pkg/config"
	"github.com/clinibook/clinic-booking/pkg/interfaces"
	"github.com/clinibook/clinic-booking/pkg/logger"
	"github.com/clinibook/clinic-booking/pkg/types"
)

// LogSender implements NotificationSender by logging the payload. It stands
// in for a real email/push provider.
type LogSender struct {
	logger *logger.Logger
}

// NewLogSender creates a log-backed notification sender.
func NewLogSender(log *logger.Logger) interfaces.NotificationSender {
	return &LogSender{
		logger: log,
	}
}

// SendEmail logs an email notification.
func (s *LogSender) SendEmail(to, subject, body string) error {
	s.logger.WithFields(map[string]interface{}{
		"to":      to,
		"subject": subject,
	}).Infof("Sending email: %s", body)

	// TODO: Integrate with an email provider (SendGrid, AWS SES)
	return nil
}

// SendPushNotification logs a push notification.
func (s *LogSender) SendPushNotification(userID, title, message string) error {
	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"title":   title,
	}).Infof("Sending push notification: %s", message)

	return nil
}

// AppointmentNotificationManager handles appointment-specific notifications.
// All dispatch is best effort; failures are logged and never fail the
// booking operation that triggered them.
type AppointmentNotificationManager struct {
	sender interfaces.NotificationSender
	repo   interfaces.BookingRepository
	clock  interfaces.Clock
	config *config.Notification
	logger *logger.Logger
}

// NewAppointmentNotificationManager creates a new appointment notification manager.
func NewAppointmentNotificationManager(
	sender interfaces.NotificationSender,
	repo interfaces.BookingRepository,
	clock interfaces.Clock,
	cfg *config.Notification,
	log *logger.Logger,
) *AppointmentNotificationManager {
	return &AppointmentNotificationManager{
		sender: sender,
		repo:   repo,
		clock:  clock,
		config: cfg,
		logger: log,
	}
}

// SendBookingConfirmation notifies the patient that a booking request was
// placed and is awaiting the doctor's decision.
func (anm *AppointmentNotificationManager) SendBookingConfirmation(apt *types.Appointment) error {
	if !anm.config.Enabled {
		return nil
	}

	subject := "Booking Request Received"
	body := fmt.Sprintf(
		"Your booking request has been placed and is awaiting confirmation.\n\nDetails:\n- Date: %s\n- Time: %s\n- Reference: %s",
		apt.Date, apt.Hour, apt.ID,
	)
	if err := anm.sender.SendEmail(anm.patientAddress(apt), subject, anm.withSignature(body)); err != nil {
		anm.logger.WithError(err).Error("Failed to send booking confirmation email")
	}

	message := fmt.Sprintf("Booking request for %s at %s received", apt.Date, apt.Hour)
	if err := anm.sender.SendPushNotification(apt.PatientID, "Booking Received", message); err != nil {
		anm.logger.WithError(err).Error("Failed to send booking confirmation push")
	}

	return nil
}

// SendStatusChangeNotification notifies the patient about a lifecycle change
// (confirmed, declined, canceled, rescheduled, updated).
func (anm *AppointmentNotificationManager) SendStatusChangeNotification(apt *types.Appointment, changeType string) error {
	if !anm.config.Enabled {
		return nil
	}

	var subject, message string
	switch changeType {
	case "confirmed":
		subject = "Appointment Confirmed"
		message = fmt.Sprintf("Your appointment on %s at %s has been confirmed", apt.Date, apt.Hour)
	case "declined":
		subject = "Appointment Declined"
		message = fmt.Sprintf("Your appointment request for %s at %s was declined", apt.Date, apt.Hour)
	case "canceled":
		subject = "Appointment Canceled"
		message = fmt.Sprintf("Your appointment on %s at %s has been canceled", apt.Date, apt.Hour)
	case "rescheduled":
		subject = "Appointment Rescheduled"
		message = fmt.Sprintf("Your appointment has moved to %s at %s and is awaiting confirmation", apt.Date, apt.Hour)
	default:
		subject = "Appointment Updated"
		message = fmt.Sprintf("Your appointment on %s at %s has been updated", apt.Date, apt.Hour)
	}

	body := fmt.Sprintf("%s.\n\nReference: %s", message, apt.ID)
	if err := anm.sender.SendEmail(anm.patientAddress(apt), subject, anm.withSignature(body)); err != nil {
		anm.logger.WithError(err).Error("Failed to send status change email")
	}
	if err := anm.sender.SendPushNotification(apt.PatientID, subject, message); err != nil {
		anm.logger.WithError(err).Error("Failed to send status change push")
	}

	return nil
}

// SendUpcomingReminders sweeps pending and confirmed appointments inside the
// reminder window and dispatches a reminder for each. Individual failures
// are logged and do not stop the sweep.
func (anm *AppointmentNotificationManager) SendUpcomingReminders() error {
	if !anm.config.Enabled {
		return nil
	}

	now := anm.clock.Now()
	window := time.Duration(anm.config.ReminderWindow) * time.Hour

	appointments, err := anm.repo.GetAppointments(&types.AppointmentFilters{
		Statuses: []types.AppointmentStatus{types.StatusPending, types.StatusConfirmed},
		FromDate: now.Format(types.DateFormat),
		ToDate:   now.Add(window).Format(types.DateFormat),
	})
	if err != nil {
		return fmt.Errorf("failed to get upcoming appointments: %w", err)
	}

	sent := 0
	for _, apt := range appointments {
		start, err := slotStartTime(apt.Date, apt.Hour)
		if err != nil {
			anm.logger.WithError(err).Warnf("Skipping reminder for appointment %s", apt.ID)
			continue
		}
		until := start.Sub(now)
		if until <= 0 || until > window {
			continue
		}

		if err := anm.sendReminder(apt, until); err != nil {
			anm.logger.WithError(err).Errorf("Failed to send reminder for appointment %s", apt.ID)
			continue
		}
		sent++
	}

	anm.logger.Infof("Reminder sweep complete: %d reminders sent", sent)
	return nil
}

func (anm *AppointmentNotificationManager) sendReminder(apt *types.Appointment, until time.Duration) error {
	subject := "Appointment Reminder"
	body := fmt.Sprintf(
		"This is a reminder for your appointment on %s at %s.\n\nReference: %s",
		apt.Date, apt.Hour, apt.ID,
	)
	if err := anm.sender.SendEmail(anm.patientAddress(apt), subject, anm.withSignature(body)); err != nil {
		return err
	}

	message := fmt.Sprintf("Your appointment is in %s", formatDuration(until))
	return anm.sender.SendPushNotification(apt.PatientID, subject, message)
}

// patientAddress resolves the delivery address for a patient. Patient
// contact records live outside this service, so the patient id is the
// routing key the delivery provider resolves.
func (anm *AppointmentNotificationManager) patientAddress(apt *types.Appointment) string {
	return apt.PatientID
}

// withSignature appends the clinic's reply address when one is configured.
func (anm *AppointmentNotificationManager) withSignature(body string) string {
	if anm.config.SenderAddress == "" {
		return body
	}
	return fmt.Sprintf("%s\n\nReply to: %s", body, anm.config.SenderAddress)
}

// formatDuration renders a duration as whole hours and minutes.
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
