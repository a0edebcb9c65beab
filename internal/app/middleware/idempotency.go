package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentdesk/internal/app/commands"
)

// IdempotentCommand is a command a client may resend under the same Idempotency-Key.
// ResultPrototype returns a pointer the stored result is decoded into on replay.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

// IdempotencyRecord is the remembered outcome of one keyed command. Fingerprint hashes
// the command so a key reused for a different request can be told apart from a retry.
type IdempotencyRecord struct {
	Key         string
	Fingerprint string
	Payload     []byte
	OccurredAt  time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var (
	// ErrIdempotencyKeyReuse means the key already belongs to a different request.
	ErrIdempotencyKeyReuse = errors.New("middleware: idempotency key reused with a different request")
	errMissingPrototype    = errors.New("middleware: idempotent command requires result prototype")
)

// ScopedKey namespaces a client key by command so one key cannot replay another command.
func ScopedKey(cmd IdempotentCommand) string {
	return cmd.Key() + ":" + cmd.IdempotencyKey()
}

// Fingerprint hashes the encoded command.
func Fingerprint(codec ResultCodec, cmd commands.Command) (string, error) {
	raw, err := codec.Encode(cmd)
	if err != nil {
		return "", fmt.Errorf("middleware: fingerprint %s: %w", cmd.Key(), err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Idempotency replays the stored result of a command already executed under the same
// key. Only successes are remembered, so a rejected request can be corrected and resent
// with its key.
func Idempotency(store IdempotencyStore, codec ResultCodec, now func() time.Time) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	if now == nil {
		now = time.Now
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			keyed, ok := cmd.(IdempotentCommand)
			if !ok || keyed.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := ScopedKey(keyed)
			fingerprint, err := Fingerprint(codec, cmd)
			if err != nil {
				return nil, err
			}

			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
					return nil, fmt.Errorf("%w: %s", ErrIdempotencyKeyReuse, keyed.IdempotencyKey())
				}
				return replay(codec, keyed, rec.Payload)
			}

			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			record := IdempotencyRecord{Key: key, Fingerprint: fingerprint, OccurredAt: now().UTC()}
			if result != nil {
				if record.Payload, err = codec.Encode(result); err != nil {
					return nil, err
				}
			}
			if err := store.Save(ctx, record); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func replay(codec ResultCodec, cmd IdempotentCommand, payload []byte) (any, error) {
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(payload, proto); err != nil {
		return nil, err
	}
	return proto, nil
}
