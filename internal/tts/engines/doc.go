// Package engines provides the speech synthesis backends: the ElevenLabs
// HTTP API and an external script speaking the same voice/format options.
package engines
