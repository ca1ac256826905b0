// ABOUTME: Sample source contract for the production loop
// ABOUTME: Defines the per-sample generator interface the engine pulls from
package generate

// Source produces one mono stream of signed 16-bit samples.
//
// Next is called once per sample from the engine's production goroutine
// and must not block or allocate. Sources are stateful; one instance is
// one sample stream.
//
// SetSampleRate is called before production begins. Implementations may
// assume it is not called while samples are being produced.
type Source interface {
	SetSampleRate(rateHz int)
	Next() int16
}
