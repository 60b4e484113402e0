package svg2png

import (
	"context"
	"encoding/json"
	"fmt"
)

// intrinsicSizeJS reads the document's natural dimensions. Declared
// width/height attributes win; a trailing "%" makes a declaration
// unusable (percentages cannot be resolved without layout context).
// Missing dimensions are derived from the viewBox aspect ratio, and a
// bare viewBox supplies both. Returns null when nothing is determinable
// and an error-shaped object instead of throwing.
const intrinsicSizeJS = `() => {
	try {
		const root = document.documentElement;
		if (!root || root.nodeName.toLowerCase() !== "svg") {
			return { error: "document root is not an svg element" };
		}
		const declared = (name) => {
			const value = root.getAttribute(name);
			if (value === null || /%\s*$/.test(value)) {
				return null;
			}
			const n = parseFloat(value);
			return isFinite(n) && n > 0 ? n : null;
		};
		const width = declared("width");
		const height = declared("height");
		if (width !== null && height !== null) {
			return { width: width, height: height };
		}
		const box = root.viewBox.animVal;
		const boxWidth = box && box.width > 0 ? box.width : null;
		const boxHeight = box && box.height > 0 ? box.height : null;
		if (width !== null && boxWidth && boxHeight) {
			return { width: width, height: width * boxHeight / boxWidth };
		}
		if (height !== null && boxWidth && boxHeight) {
			return { width: height * boxWidth / boxHeight, height: height };
		}
		if (boxWidth && boxHeight) {
			return { width: boxWidth, height: boxHeight };
		}
		return null;
	} catch (err) {
		return { error: String(err.message || err) };
	}
}`

// setSizeJS stamps explicit pixel dimensions onto the document's root
// element. A null dimension removes the attribute; two nulls are a
// no-op. Returns the applied dimensions or an error-shaped object.
const setSizeJS = `(width, height) => {
	try {
		if (width === null && height === null) {
			return { width: width, height: height };
		}
		const root = document.documentElement;
		if (!root || root.nodeName.toLowerCase() !== "svg") {
			return { error: "document root is not an svg element" };
		}
		const apply = (name, value) => {
			if (value === null) {
				root.removeAttribute(name);
			} else {
				root.setAttribute(name, value + "px");
			}
		};
		apply("width", width);
		apply("height", height);
		return { width: width, height: height };
	} catch (err) {
		return { error: String(err.message || err) };
	}
}`

// sizeProbe is the wire shape returned by the in-context size functions.
// A non-empty Error means the function failed inside the document.
type sizeProbe struct {
	Error  string   `json:"error"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// evalSizeProbe runs one of the size functions and applies the
// error-marker gate: the context boundary cannot propagate document
// failures as errors, so a transport failure, an undecodable result,
// and an error-shaped value all convert to ErrEvaluate here. A null
// result returns (nil, nil).
func evalSizeProbe(ctx context.Context, rc RenderContext, js string, args ...any) (*sizeProbe, error) {
	raw, err := rc.Eval(ctx, js, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluate, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var probe sizeProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: unexpected result %s", ErrEvaluate, raw)
	}
	if probe.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrEvaluate, probe.Error)
	}
	return &probe, nil
}

// resolveDimensions determines the output size for a loaded document.
//
// The requested dimensions are stamped onto the document first, so the
// intrinsic probe sees explicit values take precedence over declared
// ones and derives any missing dimension from the document's aspect
// ratio. The final size is stamped back so the document renders at
// exactly the exported size.
func resolveDimensions(ctx context.Context, rc RenderContext, requested *Size, scale float64) (Dimensions, error) {
	reqWidth, reqHeight := requestedDims(requested)

	if _, err := evalSizeProbe(ctx, rc, setSizeJS, jsNumber(reqWidth), jsNumber(reqHeight)); err != nil {
		return Dimensions{}, err
	}

	var dims Dimensions
	switch {
	case reqWidth != nil && reqHeight != nil:
		// Fully specified requests win regardless of intrinsic size.
		dims = Dimensions{Width: *reqWidth, Height: *reqHeight}
	default:
		probe, err := evalSizeProbe(ctx, rc, intrinsicSizeJS)
		if err != nil {
			return Dimensions{}, err
		}
		if probe == nil || probe.Width == nil || probe.Height == nil {
			return Dimensions{}, ErrSizeUndetermined
		}
		dims = Dimensions{Width: *probe.Width, Height: *probe.Height}
	}

	dims.Width *= scale
	dims.Height *= scale

	if _, err := evalSizeProbe(ctx, rc, setSizeJS, jsNumber(&dims.Width), jsNumber(&dims.Height)); err != nil {
		return Dimensions{}, err
	}

	return dims, nil
}

// requestedDims splits a size request into per-dimension values,
// treating zero fields as unset.
func requestedDims(requested *Size) (width, height *float64) {
	if requested == nil {
		return nil, nil
	}
	if requested.Width > 0 {
		w := requested.Width
		width = &w
	}
	if requested.Height > 0 {
		h := requested.Height
		height = &h
	}
	return width, height
}

// jsNumber converts an optional dimension to an evaluation argument,
// mapping unset to null.
func jsNumber(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
