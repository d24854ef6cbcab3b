package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/almoxarifado/internal/metrics"
	"github.com/erazemk/almoxarifado/internal/model"
)

// Dispatcher turns committed transactions into coordinator e-mails.
type Dispatcher struct {
	Mailer   Mailer
	Footer   []string
	Location *time.Location
	Metrics  *metrics.Metrics

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (d *Dispatcher) now() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Transaction notifies the coordinator of the lines of one submitted form.
// Every record must carry the same header; the first one is used.
func (d *Dispatcher) Transaction(ctx context.Context, kind model.Kind, records []model.Transaction) error {
	if len(records) == 0 {
		return nil
	}
	msg, err := d.TransactionMessage(kind, records)
	if err != nil {
		return err
	}
	return d.send(ctx, string(kind), msg)
}

// TransactionMessage builds the e-mail for a set of records without sending it.
func (d *Dispatcher) TransactionMessage(kind model.Kind, records []model.Transaction) (Message, error) {
	h := records[0]
	if !strings.Contains(h.CoordinatorEmail, "@") {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidRecipient, h.CoordinatorEmail)
	}

	now := d.now()
	data := transactionData{
		Coordinator: strings.ToUpper(h.Coordinator),
		Worker:      strings.ToUpper(h.Worker),
		CPF:         h.CPF,
		Responsible: h.Responsible,
		Shift:       h.Shift,
		CostCenter:  h.CostCenter,
		Date:        now.Format("02/01/2006 15:04"),
		ItemHeader:  "Item",
		Footer:      d.Footer,
	}
	for _, r := range records {
		size := r.Size
		if size == model.SizeUnique {
			size = ""
		}
		data.Lines = append(data.Lines, line{Item: r.Item, Size: size, Quantity: r.Quantity})
	}

	var subject string
	day := now.Format("02/01/2006")
	switch kind {
	case model.KindIssuance:
		data.Lead = "Saída de EPI registrada para"
		data.Date = now.Format("02/01/2006 15:04:05")
		data.Extra = []field{{"Motivo", h.Reason}, {"Status", h.Status}, {"Efetivo", h.Workforce}}
		subject = fmt.Sprintf("Saída de EPI — %s — %s", data.Worker, day)
	case model.KindSupply:
		data.Lead = "Foi registrada a saída de insumos para"
		data.ItemHeader = "Insumo"
		subject = fmt.Sprintf("Saída de Insumos - %s - %s", data.Worker, day)
	case model.KindLoan:
		data.Lead = "Foi registrado um empréstimo para o colaborador"
		data.Extra = []field{{"Status", h.Status}}
		subject = fmt.Sprintf("Empréstimo - %s - %s", data.Worker, day)
	case model.KindReturn:
		data.Lead = "Foi registrada a devolução para o colaborador"
		data.Extra = []field{{"Status", h.Status}, {"Motivo", h.Reason}}
		subject = fmt.Sprintf("Devolução - %s - %s", data.Worker, day)
	default:
		return Message{}, fmt.Errorf("no notification for %q", kind)
	}

	var buf bytes.Buffer
	if err := transactionTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("rendering notification: %w", err)
	}
	return Message{To: h.CoordinatorEmail, Subject: subject, HTML: buf.String()}, nil
}

// CoordinatorWelcome confirms a new coordinator's registration.
func (d *Dispatcher) CoordinatorWelcome(ctx context.Context, c model.Coordinator) error {
	if !strings.Contains(c.Email, "@") {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, c.Email)
	}

	name := strings.ToUpper(c.Name)
	var buf bytes.Buffer
	err := welcomeTmpl.Execute(&buf, welcomeData{
		Name:   name,
		Email:  c.Email,
		Date:   d.now().Format("02/01/2006 15:04:05"),
		Footer: d.Footer,
	})
	if err != nil {
		return fmt.Errorf("rendering welcome: %w", err)
	}

	return d.send(ctx, "coordenador", Message{
		To:      c.Email,
		Subject: "Confirmação de Cadastro no Sistema de Almoxarifado - " + name,
		HTML:    buf.String(),
	})
}

func (d *Dispatcher) send(ctx context.Context, kind string, msg Message) error {
	msg.ID = uuid.NewString()
	err := d.Mailer.Send(ctx, msg)
	d.Metrics.ObserveNotification(kind, err)
	if err != nil {
		slog.Warn("notification not sent", "id", msg.ID, "kind", kind, "to", msg.To, "error", err)
		return err
	}
	slog.Info("notification sent", "id", msg.ID, "kind", kind, "to", msg.To)
	return nil
}
