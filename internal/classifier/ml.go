package classifier

import "context"

// MLClassifier is the Tier-2 interface. Implementations wrap a loaded
// ONNX prompt-guard model. The pipeline degrades gracefully when no
// implementation is wired: a nil MLClassifier simply means Tier-2 is
// skipped, never an error.
//
// No ONNX runtime binding exists anywhere in the example corpus this
// module was grounded on, so (per DESIGN.md) this stays an injected
// interface rather than a concrete import — wiring a real implementation
// (e.g. github.com/yalue/onnxruntime_go) means providing one of these.
type MLClassifier interface {
	Classify(ctx context.Context, text string) ([]CategoryMatch, error)
	Close() error
}

// NSFWClassifier is the Tier-3 interface for the image classifier.
// Implementations wrap a loaded ONNX vision model. A nil NSFWClassifier
// means the image tier is skipped.
type NSFWClassifier interface {
	ClassifyImage(ctx context.Context, img []byte) (NSFWResult, error)
	Close() error
}

// NSFWResult is the softmax output of the vision model, collapsed to a
// binary SFW/NSFW decision per the model's head shape (2-class or
// 5-class — see image.go).
type NSFWResult struct {
	SFWProbability  float64
	NSFWProbability float64
}
