// Package timeouts defines shared timeout constants used across the batch
// commands. Centralizing these values prevents drift between boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// MailSend caps the wait time for one outbound mail-transport call. A send
// that exceeds this is treated as a transient failure and retried on the
// next run.
const MailSend = 30 * time.Second

// Shutdown limits how long a command waits for telemetry flush during
// graceful shutdown.
const Shutdown = 5 * time.Second
