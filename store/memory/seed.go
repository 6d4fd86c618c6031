package memory

import "postboard/domain"

// DefaultSeed is loaded into the memory store when the server starts.
var DefaultSeed = []domain.Post{
	{
		ID:      "0",
		Title:   "Welcome to the blog",
		Content: "This is the first post. Write a new one from the **New post** page.",
	},
	{
		ID:      "1",
		Title:   "Markdown is supported",
		Content: "Post content is rendered as *markdown*, so lists work:\n\n- one\n- two\n",
	},
	{
		ID:      "2",
		Title:   "Images",
		Content: "Attach a JPEG or PNG image when creating or editing a post.",
	},
}
