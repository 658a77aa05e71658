package imagecdn

import "fmt"

// Named transformations exposed by the API. The heavy lifting happens on
// the provider; these only build delivery URLs.
const (
	TransformCircle    = "circle"
	TransformRounded   = "rounded"
	TransformGrayscale = "grayscale"
	TransformSepia     = "sepia"
	TransformBlur      = "blur"
)

// AvailableTransformations maps transformation names to descriptions.
var AvailableTransformations = map[string]string{
	TransformCircle:    "Circular crop",
	TransformRounded:   "Rounded corners",
	TransformGrayscale: "Black and white",
	TransformSepia:     "Sepia tone",
	TransformBlur:      "Blur effect",
}

func (c *Client) deliveryURL(transformation, publicID string) string {
	return fmt.Sprintf("%s/%s/image/upload/%s/%s", c.deliverBase, c.cloudName, transformation, publicID)
}

// CircleCropURL returns the image cropped to a face-centered circle.
func (c *Client) CircleCropURL(publicID string, size int) string {
	return c.deliveryURL(fmt.Sprintf("w_%d,h_%d,c_fill,g_face/r_max", size, size), publicID)
}

// RoundedCornersURL returns the image with rounded corners.
func (c *Client) RoundedCornersURL(publicID string, radius int) string {
	return c.deliveryURL(fmt.Sprintf("r_%d", radius), publicID)
}

// GrayscaleURL returns the image in black and white.
func (c *Client) GrayscaleURL(publicID string) string {
	return c.deliveryURL("e_grayscale", publicID)
}

// SepiaURL returns the image with a sepia effect.
func (c *Client) SepiaURL(publicID string) string {
	return c.deliveryURL("e_sepia", publicID)
}

// BlurURL returns the image blurred with the given strength.
func (c *Client) BlurURL(publicID string, strength int) string {
	return c.deliveryURL(fmt.Sprintf("e_blur:%d", strength), publicID)
}
