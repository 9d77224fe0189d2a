package files

type CreateFolderRequest struct {
	Path string `json:"path" validate:"relpath"`
	Name string `json:"name" validate:"required,entryname"`
}

type ArchiveRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,dive,required"`
}

type ListResponse struct {
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
}
