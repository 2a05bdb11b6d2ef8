// Code generated by internal/devtool/genassets from
// internal/inject/assets/head_inject.js. DO NOT EDIT.

package inject

// fullscreenPolyfillScript is head_inject.js, minified.
const fullscreenPolyfillScript = "(function(){function o(n){return fetch(\"/__yao_desktop/window/fullscreen\",{method:\"POST\",headers:{\"Content-Type\":\"application/json\"},body:JSON.stringify(n)}).then(function(e){return e.json()})}function t(n){document.__fullscreenState=!!n,document.dispatchEvent(new Event(\"fullscreenchange\"))}Object.defineProperty(document,\"fullscreenElement\",{get:function(){return document.__fullscreenState?document.documentElement:null}}),Element.prototype.requestFullscreen=function(){return o({fullscreen:!0}).then(function(n){t(n.fullscreen)})},Element.prototype.webkitRequestFullscreen=Element.prototype.requestFullscreen,document.exitFullscreen=function(){return o({fullscreen:!1}).then(function(n){t(n.fullscreen)})},document.webkitExitFullscreen=document.exitFullscreen})();"
