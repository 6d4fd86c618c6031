package domain

// Image is an optional reference to an uploaded file. The zero value is
// NoImage.
type Image struct {
	path string
	set  bool
}

func SomeImage(path string) Image {
	return Image{path: path, set: true}
}

func NoImage() Image {
	return Image{}
}

// Get returns the image path and whether one was supplied.
func (i Image) Get() (string, bool) {
	return i.path, i.set
}
