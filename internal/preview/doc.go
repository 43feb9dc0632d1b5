// Package preview manages tiered live previews for backend cameras.
//
// Each camera session attempts the direct stream transport first, falls
// back to a single still image when the stream is unreachable, and is
// marked offline for the cycle when both tiers fail. The Manager also
// runs two independent loops: a parallel snapshot probe of every known
// camera on a short interval, and a full reload of the camera and video
// lists, through the retrying fetch layer, on a longer one.
package preview
