// Package inference provides the recognizers the orchestrator calls: a local
// model served by an Ollama daemon, and remote vision services (an
// OpenAI-compatible chat completions API or AWS Rekognition). Remote calls
// are rate limited; none of the adapters retry on their own.
package inference
