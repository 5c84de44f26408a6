package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tokyoedge/portal/models"
	"github.com/tokyoedge/portal/pkg/email"
	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/repository"
)

var notifyLog = logger.For("notify")

// notifyTimeout, tek bir bildirimin (webhook veya email) üst süresi.
const notifyTimeout = 15 * time.Second

// ApplicationNotifier, başvuru olaylarını dış kanallara bildirir.
// Bildirimler best-effort'tur: hata sadece log'lanır, tetikleyen işlem başarısız olmaz.
type ApplicationNotifier interface {
	ApplicationSubmitted(app models.Application)
	ApplicationDecided(app models.Application)
}

// StaffChannel, yeni başvuruyu staff kanalına iletir (pkg/discord.StaffWebhook).
type StaffChannel interface {
	NotifyNewApplication(app *models.Application, applicant *models.UserSummary) error
}

type applicationNotifier struct {
	staff    StaffChannel // nil → webhook kapalı
	mailer   email.Sender // nil → email kapalı
	userRepo repository.UserRepository
}

// NewApplicationNotifier, constructor. staff ve mailer nil olabilir.
func NewApplicationNotifier(staff StaffChannel, mailer email.Sender, userRepo repository.UserRepository) ApplicationNotifier {
	return &applicationNotifier{
		staff:    staff,
		mailer:   mailer,
		userRepo: userRepo,
	}
}

func (n *applicationNotifier) ApplicationSubmitted(app models.Application) {
	if n.staff == nil {
		return
	}
	go n.notifyStaff(app)
}

func (n *applicationNotifier) ApplicationDecided(app models.Application) {
	if n.mailer == nil || !app.Status.Decided() {
		return
	}
	go n.mailDecision(app)
}

func (n *applicationNotifier) notifyStaff(app models.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	var applicant *models.UserSummary
	if summaries, err := n.userRepo.GetSummaries(ctx, []int64{app.UserID}); err == nil {
		applicant = summaries[app.UserID]
	}

	if err := n.staff.NotifyNewApplication(&app, applicant); err != nil {
		notifyLog.WithError(err).WithField("application_id", app.ID).Warn("staff webhook failed")
	}
}

func (n *applicationNotifier) mailDecision(app models.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	fields := logrus.Fields{"application_id": app.ID, "user_id": app.UserID}

	user, err := n.userRepo.GetByID(ctx, app.UserID)
	if err != nil {
		notifyLog.WithError(err).WithFields(fields).Warn("decision email skipped: user lookup failed")
		return
	}
	if user.Email == nil || *user.Email == "" {
		return
	}

	msg := email.ReviewDecision{
		To:       *user.Email,
		Username: user.Username,
		Approved: app.Status == models.StatusApproved,
	}
	if app.AdminNotes != nil {
		msg.Notes = *app.AdminNotes
	}

	if err := n.mailer.SendReviewDecision(ctx, msg); err != nil {
		notifyLog.WithError(err).WithFields(fields).Warn("decision email failed")
		return
	}
	notifyLog.WithFields(fields).Info("decision email sent")
}
