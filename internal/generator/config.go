package generator

// TypeConfig holds the image parameters used when producing a given asset type.
type TypeConfig struct {
	// AspectRatio is the width:height ratio requested from the producer,
	// e.g. "1:1" or "9:16".
	AspectRatio string `json:"aspect_ratio"`
	// ImageSize is the resolution tier: "1K", "2K", or "4K".
	ImageSize string `json:"image_size"`
}

// assetConfigs maps each supported asset type to its image parameters.
var assetConfigs = map[string]TypeConfig{
	"icon":              {AspectRatio: "1:1", ImageSize: "2K"},
	"icon-adaptive-fg":  {AspectRatio: "1:1", ImageSize: "2K"},
	"icon-adaptive-bg":  {AspectRatio: "1:1", ImageSize: "2K"},
	"icon-notification": {AspectRatio: "1:1", ImageSize: "1K"},
	"splash":            {AspectRatio: "9:16", ImageSize: "2K"},
	"feature":           {AspectRatio: "16:9", ImageSize: "2K"},
	"screenshot":        {AspectRatio: "9:16", ImageSize: "2K"},
	"marketing":         {AspectRatio: "16:9", ImageSize: "4K"},
}

// supportedOrder fixes the display order of supported asset types.
var supportedOrder = []string{
	"icon",
	"icon-adaptive-fg",
	"icon-adaptive-bg",
	"icon-notification",
	"splash",
	"feature",
	"screenshot",
	"marketing",
}

// ConfigFor returns the image parameters for an asset type. Unknown types get
// a square 2K default rather than an error so custom type names still work.
func ConfigFor(assetType string) TypeConfig {
	if cfg, ok := assetConfigs[assetType]; ok {
		return cfg
	}
	return TypeConfig{AspectRatio: "1:1", ImageSize: "2K"}
}

// SupportedAssetTypes returns the known asset types in display order.
func SupportedAssetTypes() []string {
	return append([]string(nil), supportedOrder...)
}

// IsSupported reports whether the asset type has a dedicated configuration.
func IsSupported(assetType string) bool {
	_, ok := assetConfigs[assetType]
	return ok
}
