// Package vision captions sampled video frames with a vision-capable chat
// model reached through an OpenAI-compatible endpoint (OpenAI itself, or a
// local Ollama server on /v1).
//
// Each call sends one image as a data URL together with a fixed Portuguese
// instruction asking for three labeled fields (CENA, TEXTO, ALERTA). Sampling
// temperature and the token budget are kept low so repeated runs over the
// same frame stay close to deterministic.
package vision
