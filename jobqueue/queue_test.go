package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-backend/email"
)

type stubConnectivity struct{ online bool }

func (s stubConnectivity) IsInternetConnected() bool { return s.online }

const selectEligibleSQL = `SELECT id, service, payload, status, attempts, last_attempt_at, error_message, created_at FROM job_queue WHERE (status = 'pending' OR status = 'failed') AND attempts < ? ORDER BY created_at ASC`

func jobRows(id int, service, payload, status string, attempts int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "service", "payload", "status", "attempts", "last_attempt_at", "error_message", "created_at"}).
		AddRow(id, service, []byte(payload), status, attempts, nil, nil, time.Now())
}

func newTestQueue(t *testing.T, online bool) (*Queue, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(NewRepository(db), stubConnectivity{online: online}), mock
}

func TestProcessQueueOfflineIsNoOp(t *testing.T) {
	q, mock := newTestQueue(t, false)
	// Sin conexión no debe tocar ninguna fila.
	q.ProcessQueue(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessQueueCompletesJobOnHandlerSuccess(t *testing.T) {
	q, mock := newTestQueue(t, true)

	var got email.Options
	q.Register(KindEmail, func(ctx context.Context, payload json.RawMessage) error {
		var p EmailPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		got = p.MailOptions
		return nil
	})

	payload := `{"mailOptions":{"to":"cliente@example.com","subject":"Comprobante","body":"hola"}}`
	mock.ExpectQuery(regexp.QuoteMeta(selectEligibleSQL)).
		WithArgs(defaultMaxAttempts).
		WillReturnRows(jobRows(1, "email", payload, StatusPending, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'processing', last_attempt_at = NOW(), attempts = attempts + 1 WHERE id = ?`)).
		WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'completed' WHERE id = ?`)).
		WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))

	q.ProcessQueue(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "cliente@example.com", got.To)
}

func TestProcessQueueMarksFailedAndRetries(t *testing.T) {
	q, mock := newTestQueue(t, true)
	q.Register(KindEmail, func(ctx context.Context, payload json.RawMessage) error {
		return errors.New("smtp timeout")
	})

	// Tres ciclos fallidos: attempts crece 1, 2, 3 y la tarea sigue
	// siendo elegible (failed, por debajo del tope).
	for attempts := 0; attempts < 3; attempts++ {
		mock.ExpectQuery(regexp.QuoteMeta(selectEligibleSQL)).
			WithArgs(defaultMaxAttempts).
			WillReturnRows(jobRows(5, "email", `{"mailOptions":{"to":"x@y.com"}}`, StatusFailed, attempts))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'processing', last_attempt_at = NOW(), attempts = attempts + 1 WHERE id = ?`)).
			WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'failed', error_message = ? WHERE id = ?`)).
			WithArgs("smtp timeout", 5).WillReturnResult(sqlmock.NewResult(0, 1))
		q.ProcessQueue(context.Background())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessQueueMovesJobToDeadAtAttemptCeiling(t *testing.T) {
	q, mock := newTestQueue(t, true)
	q.Register(KindEmail, func(ctx context.Context, payload json.RawMessage) error {
		return errors.New("número inválido")
	})

	// El intento que alcanza el tope termina en dead, no en failed.
	mock.ExpectQuery(regexp.QuoteMeta(selectEligibleSQL)).
		WithArgs(defaultMaxAttempts).
		WillReturnRows(jobRows(9, "email", `{"mailOptions":{"to":"x@y.com"}}`, StatusFailed, defaultMaxAttempts-1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'processing', last_attempt_at = NOW(), attempts = attempts + 1 WHERE id = ?`)).
		WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'dead', error_message = ? WHERE id = ?`)).
		WithArgs("número inválido", 9).WillReturnResult(sqlmock.NewResult(0, 1))

	q.ProcessQueue(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessQueueDiscardsMalformedPayload(t *testing.T) {
	q, mock := newTestQueue(t, true)
	q.Register(KindEmail, func(ctx context.Context, payload json.RawMessage) error {
		t.Fatal("el manejador no debe ejecutarse con payload inválido")
		return nil
	})

	mock.ExpectQuery(regexp.QuoteMeta(selectEligibleSQL)).
		WithArgs(defaultMaxAttempts).
		WillReturnRows(jobRows(2, "email", `{not-json`, StatusPending, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'processing', last_attempt_at = NOW(), attempts = attempts + 1 WHERE id = ?`)).
		WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'dead', error_message = ? WHERE id = ?`)).
		WithArgs("Invalid JSON payload", 2).WillReturnResult(sqlmock.NewResult(0, 1))

	q.ProcessQueue(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessQueueDiscardsUnknownService(t *testing.T) {
	q, mock := newTestQueue(t, true)

	mock.ExpectQuery(regexp.QuoteMeta(selectEligibleSQL)).
		WithArgs(defaultMaxAttempts).
		WillReturnRows(jobRows(3, "telegram", `{}`, StatusPending, 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'processing', last_attempt_at = NOW(), attempts = attempts + 1 WHERE id = ?`)).
		WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE job_queue SET status = 'dead', error_message = ? WHERE id = ?`)).
		WithArgs("Servicio desconocido en la cola de trabajos: telegram", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	q.ProcessQueue(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEmailJobPersistsPendingRow(t *testing.T) {
	q, mock := newTestQueue(t, false)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO job_queue (service, payload, status) VALUES (?, ?, 'pending')`)).
		WithArgs("email", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := q.AddEmailJob(email.Options{To: "a@b.com", Subject: "s", Body: "b"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
