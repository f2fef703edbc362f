package session

// TitleBinding is the page-global function drivers expose to receive title
// reports from TitleWatcher.
const TitleBinding = "__llmuxTitle"

// TitleWatcher is installed in every document before page scripts run. It
// reports document.title once the DOM is parsed and again on every change
// to <head>.
const TitleWatcher = `(() => {
  const report = () => { try { window.` + TitleBinding + `(document.title); } catch (e) {} };
  const watch = () => {
    report();
    const head = document.querySelector('head') || document.documentElement;
    new MutationObserver(report).observe(head, { subtree: true, childList: true, characterData: true });
  };
  if (document.readyState === 'loading') {
    document.addEventListener('DOMContentLoaded', watch, { once: true });
  } else {
    watch();
  }
})();`
