// Package visualevidence samples frames from acquired media and captions
// them with a vision model.
//
// Exactly three moments are sampled (15%, 50% and 85% of the frame count).
// Each frame is resized to a fixed width, written under the run's frames
// directory and captioned with the labeled CENA/TEXTO/ALERTA format. A frame
// that fails to capture or caption is logged and left out; unreadable media
// yields no reports. Reports are always returned in timeline order.
package visualevidence
