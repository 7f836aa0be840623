package dms

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/anacrolix/log"

	"github.com/stefanop/yada/cds"
)

// shareIngest walks DocRootPath once at startup and populates srv.tree,
// mirroring original_source/src/cds.c's directory scan but building an
// in-memory tree up front instead of re-walking on every Browse.
func (srv *Server) shareIngest() error {
	root := srv.DocRootPath
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	parentIDs := map[string]string{root: cds.RootID}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("dms: walking %s: %s", path, err)
			return nil
		}
		if path == root {
			return nil
		}
		if ignore, err := srv.ignorePath(path); err != nil {
			log.Printf("dms: %s: %s", path, err)
			return nil
		} else if ignore {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		parent := parentIDs[filepath.Dir(path)]
		if d.IsDir() {
			id, err := srv.tree.AddFolder(path, d.Name(), parent)
			if err != nil {
				log.Printf("dms: adding folder %s: %s", path, err)
				return fs.SkipDir
			}
			parentIDs[path] = id
			return nil
		}

		resource, err := srv.Prober.Probe(path)
		if err != nil {
			log.Printf("dms: probing %s: %s", path, err)
			return nil
		}
		if _, err := srv.tree.AddItem(resource, parent); err != nil {
			log.Printf("dms: adding item %s: %s", path, err)
		}
		return nil
	})
}

// ignorePath applies the hidden/unreadable/ignore-list filters the
// teacher's Server.IgnorePath method implements, generalized from a single
// shared-root check to the streaming walk shareIngest performs.
func (srv *Server) ignorePath(path string) (bool, error) {
	if srv.IgnoreHidden && isHiddenPath(path) {
		return true, nil
	}
	if srv.IgnoreUnreadable {
		readable, err := tryToOpenPath(path)
		if err != nil {
			return false, err
		}
		if !readable {
			return true, nil
		}
	}
	for _, element := range srv.IgnorePaths {
		if element != "" && strings.Contains(path, string(os.PathSeparator)+element+string(os.PathSeparator)) {
			return true, nil
		}
		if filepath.Base(path) == element {
			return true, nil
		}
	}
	return false, nil
}

func isHiddenPath(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// tryToOpenPath is the portable readability probe the teacher's
// tryToOpenPath uses: attempt to open the path and treat a permission
// error as "unreadable" rather than a hard failure.
func tryToOpenPath(path string) (bool, error) {
	fh, err := os.Open(path)
	if err == nil {
		fh.Close()
		return true, nil
	}
	if os.IsPermission(err) {
		return false, nil
	}
	return false, err
}
